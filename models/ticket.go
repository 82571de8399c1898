package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the state of a support ticket
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketClosed     TicketStatus = "closed"
)

// Ticket represents an internal work item, optionally tied to a client
type Ticket struct {
	ID         uuid.UUID    `json:"id"`
	ClientID   *uuid.UUID   `json:"client_id,omitempty"`
	Subject    string       `json:"subject"`
	Body       string       `json:"body,omitempty"`
	Status     TicketStatus `json:"status"`
	Priority   int          `json:"priority"` // 1 (low) .. 3 (high)
	AssigneeID *uuid.UUID   `json:"assignee_id,omitempty"`
	CreatedBy  uuid.UUID    `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
