package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientDocument represents one version of an archived file. A lineage is
// identified by (client, category, year, month); exactly one version in a
// lineage has IsCurrent set.
type ClientDocument struct {
	ID                uuid.UUID  `json:"id"`
	ClientID          uuid.UUID  `json:"client_id"`
	ObligationID      *uuid.UUID `json:"obligation_id,omitempty"`
	Category          string     `json:"category"`
	Year              int        `json:"year"`
	Month             int        `json:"month"`
	Filename          string     `json:"filename"`
	MimeType          string     `json:"mime_type"`
	Size              int64      `json:"size"`
	StoragePath       string     `json:"storage_path"`
	Version           int        `json:"version"`
	IsCurrent         bool       `json:"is_current"`
	PreviousVersionID *uuid.UUID `json:"previous_version_id,omitempty"`
	UploadedBy        *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DocumentTag represents a label attachable to documents
type DocumentTag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentCollection represents a named grouping of documents
type DocumentCollection struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// SharedLink represents a token-based public download link for a document.
// A link is spent once DownloadCount reaches MaxDownloads, regardless of expiry.
type SharedLink struct {
	ID            uuid.UUID  `json:"id"`
	DocumentID    uuid.UUID  `json:"document_id"`
	Token         string     `json:"token"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `json:"download_count"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}
