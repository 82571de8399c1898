package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/storage"

	"github.com/google/uuid"
)

// DocumentStore is the document persistence used by the archive service
type DocumentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ClientDocument, error)
	GetCurrent(ctx context.Context, clientID uuid.UUID, category string, year, month int) (*models.ClientDocument, error)
	InsertVersion(ctx context.Context, doc *models.ClientDocument, previous *models.ClientDocument) error
	List(ctx context.Context, filter repository.DocumentFilter, limit, offset int) ([]*models.ClientDocument, error)
	ListVersions(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]*models.ClientDocument, error)
	DeleteLineage(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]string, error)
}

// LinkStore is the shared link persistence used by the archive service
type LinkStore interface {
	CreateLink(ctx context.Context, link *models.SharedLink) error
	GetLinkByToken(ctx context.Context, token string) (*models.SharedLink, error)
	ConsumeDownload(ctx context.Context, id uuid.UUID) (bool, error)
}

// ArchiveSettingsStore loads the archive configuration
type ArchiveSettingsStore interface {
	GetArchiveSettings(ctx context.Context) (*models.ArchiveSettings, error)
}

// DocumentClientStore loads clients for path rendering
type DocumentClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// DocumentService handles archive uploads, version lineages and shared links
type DocumentService struct {
	documents DocumentStore
	links     LinkStore
	settings  ArchiveSettingsStore
	clients   DocumentClientStore
	storage   storage.Storage
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// WithDocumentStore sets the document persistence
func WithDocumentStore(s DocumentStore) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.documents = s
	}
}

// WithLinkStore sets the shared link persistence
func WithLinkStore(s LinkStore) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.links = s
	}
}

// WithArchiveSettingsStore sets the settings source
func WithArchiveSettingsStore(s ArchiveSettingsStore) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.settings = s
	}
}

// WithDocumentClientStore sets the client store
func WithDocumentClientStore(s DocumentClientStore) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.clients = s
	}
}

// WithStorage sets the file storage backend
func WithStorage(s storage.Storage) DocumentServiceOption {
	return func(svc *DocumentService) {
		svc.storage = s
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	svc := &DocumentService{}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// UploadRequest represents a file to archive
type UploadRequest struct {
	ClientID     uuid.UUID
	ObligationID *uuid.UUID
	Category     string
	Year         int
	Month        int
	Filename     string
	MimeType     string
	Size         int64
	Data         io.Reader
	UploadedBy   *uuid.UUID
}

// Upload validates and stores a file, creating a new version when the
// lineage already has a current document. The version flip is atomic: either
// both rows change or neither does.
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest) (*models.ClientDocument, error) {
	if s.documents == nil || s.settings == nil || s.clients == nil || s.storage == nil {
		return nil, errors.New("document service is not fully configured")
	}
	if req.Filename == "" {
		return nil, &ValidationError{Field: "filename", Message: "is required"}
	}
	if req.Category == "" {
		return nil, &ValidationError{Field: "category", Message: "is required"}
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}

	settings, err := s.settings.GetArchiveSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive settings: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !extensionAllowed(ext, settings.AllowedExts) {
		return nil, &ValidationError{Field: "filename", Message: fmt.Sprintf("extension %q is not allowed", ext)}
	}
	if settings.MaxFileSize > 0 && req.Size > settings.MaxFileSize {
		return nil, &ValidationError{Field: "file", Message: fmt.Sprintf("size exceeds maximum of %d bytes", settings.MaxFileSize)}
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}

	previous, err := s.documents.GetCurrent(ctx, req.ClientID, req.Category, req.Year, req.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to look up current version: %w", err)
	}

	version := 1
	if previous != nil {
		version = previous.Version + 1
	}

	storagePath, err := storage.RenderPath(settings.Layout, settings.CustomTemplate, storage.PathInfo{
		AFM:        client.AFM,
		ClientName: client.Name,
		Year:       req.Year,
		Month:      req.Month,
		Category:   req.Category,
		Filename:   req.Filename,
		Version:    version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute storage path: %w", err)
	}

	if err := s.storage.Upload(ctx, storagePath, req.Data); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.ClientDocument{
		ClientID:     req.ClientID,
		ObligationID: req.ObligationID,
		Category:     req.Category,
		Year:         req.Year,
		Month:        req.Month,
		Filename:     req.Filename,
		MimeType:     req.MimeType,
		Size:         req.Size,
		StoragePath:  storagePath,
		UploadedBy:   req.UploadedBy,
	}

	if err := s.documents.InsertVersion(ctx, doc, previous); err != nil {
		// Clean up the stored file when the record could not be saved
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			log.Printf("Failed to clean up %s after insert error: %v", storagePath, delErr)
		}
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

func extensionAllowed(ext string, allowed models.StringList) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// Open returns a document record together with its content
func (s *DocumentService) Open(ctx context.Context, id uuid.UUID) (*models.ClientDocument, io.ReadCloser, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load document: %w", err)
	}

	reader, err := s.storage.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
	}

	return doc, reader, nil
}

// DeleteLineage removes every version of a document lineage, its tag
// assignments, collection memberships and shared links, then the stored
// files
func (s *DocumentService) DeleteLineage(ctx context.Context, clientID uuid.UUID, category string, year, month int) error {
	paths, err := s.documents.DeleteLineage(ctx, clientID, category, year, month)
	if err != nil {
		return fmt.Errorf("failed to delete lineage: %w", err)
	}

	for _, path := range paths {
		if err := s.storage.Delete(ctx, path); err != nil {
			log.Printf("Failed to delete stored file %s: %v", path, err)
		}
	}

	return nil
}

// CreateSharedLink issues a token-based download link for a document
func (s *DocumentService) CreateSharedLink(ctx context.Context, documentID uuid.UUID, expiresAt *time.Time, maxDownloads *int, createdBy uuid.UUID) (*models.SharedLink, error) {
	if s.links == nil {
		return nil, errors.New("link store not set")
	}
	if maxDownloads != nil && *maxDownloads < 1 {
		return nil, &ValidationError{Field: "max_downloads", Message: "must be at least 1"}
	}

	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	tokenBytes := make([]byte, 16)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	link := &models.SharedLink{
		DocumentID:   documentID,
		Token:        hex.EncodeToString(tokenBytes),
		ExpiresAt:    expiresAt,
		MaxDownloads: maxDownloads,
		CreatedBy:    createdBy,
	}

	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create shared link: %w", err)
	}

	return link, nil
}

// RedeemSharedLink checks a token and streams the document. The download
// budget is checked before expiry so an exhausted link is reported as
// exhausted regardless of expires_at.
func (s *DocumentService) RedeemSharedLink(ctx context.Context, token string) (*models.ClientDocument, io.ReadCloser, error) {
	link, err := s.links.GetLinkByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up link: %w", err)
	}

	if link.MaxDownloads != nil && link.DownloadCount >= *link.MaxDownloads {
		return nil, nil, ErrLinkExhausted
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return nil, nil, ErrLinkExpired
	}

	// The counter increments only while budget remains, so concurrent
	// redemptions cannot exceed max_downloads.
	ok, err := s.links.ConsumeDownload(ctx, link.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to consume download: %w", err)
	}
	if !ok {
		return nil, nil, ErrLinkExhausted
	}

	return s.Open(ctx, link.DocumentID)
}
