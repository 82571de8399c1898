package models

import (
	"time"

	"github.com/google/uuid"
)

// ObligationStatus represents the lifecycle state of a monthly obligation
type ObligationStatus string

const (
	ObligationPending   ObligationStatus = "pending"
	ObligationCompleted ObligationStatus = "completed"
	ObligationOverdue   ObligationStatus = "overdue"
)

// ObligationType represents a named category of recurring filing (VAT, payroll, ...)
type ObligationType struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	DefaultTemplateID *uuid.UUID `json:"default_template_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ProfileItem represents one obligation type inside a profile together with
// its deadline day-of-month (1..28).
type ProfileItem struct {
	ObligationTypeID uuid.UUID `json:"obligation_type_id"`
	DeadlineDay      int       `json:"deadline_day"`
}

// ObligationProfile represents a reusable bundle of obligation types assignable to clients
type ObligationProfile struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Active    bool          `json:"active"`
	Items     []ProfileItem `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// MonthlyObligation represents one instance of an obligation for a client in
// a given period. At most one exists per (client, type, year, month).
type MonthlyObligation struct {
	ID               uuid.UUID        `json:"id"`
	ClientID         uuid.UUID        `json:"client_id"`
	ObligationTypeID uuid.UUID        `json:"obligation_type_id"`
	Year             int              `json:"year"`
	Month            int              `json:"month"`
	Deadline         time.Time        `json:"deadline"`
	Status           ObligationStatus `json:"status"`
	AssigneeID       *uuid.UUID       `json:"assignee_id,omitempty"`
	DocumentID       *uuid.UUID       `json:"document_id,omitempty"`
	CompletedBy      *uuid.UUID       `json:"completed_by,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
