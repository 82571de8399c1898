package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailStatus represents the delivery state of an email log entry
type EmailStatus string

const (
	EmailPending EmailStatus = "pending"
	EmailQueued  EmailStatus = "queued"
	EmailSent    EmailStatus = "sent"
	EmailFailed  EmailStatus = "failed"
)

// EmailTemplate represents a parametrized subject/body pair. Placeholders use
// the {name} syntax, e.g. {client_name}, {deadline}.
type EmailTemplate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailLog represents one logical send attempt and its outcome. Retries of
// transient failures update RetryCount on the same row rather than creating
// new rows.
type EmailLog struct {
	ID           uuid.UUID   `json:"id"`
	ClientID     *uuid.UUID  `json:"client_id,omitempty"`
	ObligationID *uuid.UUID  `json:"obligation_id,omitempty"`
	TemplateID   *uuid.UUID  `json:"template_id,omitempty"`
	SenderID     *uuid.UUID  `json:"sender_id,omitempty"`
	Recipient    string      `json:"recipient"`
	Subject      string      `json:"subject"`
	Body         string      `json:"body"`
	Status       EmailStatus `json:"status"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	RetryCount   int         `json:"retry_count"`
	ScheduledAt  *time.Time  `json:"scheduled_at,omitempty"`
	SentAt       *time.Time  `json:"sent_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// EmailSettings represents the singleton SMTP configuration row. The password
// is stored AES-GCM encrypted; PasswordCipher and PasswordNonce are never
// serialized to API responses.
type EmailSettings struct {
	ID             uuid.UUID  `json:"id"`
	Host           string     `json:"host"`
	Port           int        `json:"port"`
	Username       string     `json:"username"`
	PasswordCipher []byte     `json:"-"`
	PasswordNonce  []byte     `json:"-"`
	FromAddress    string     `json:"from_address"`
	FromName       string     `json:"from_name"`
	UseTLS         bool       `json:"use_tls"`
	RatePerSecond  float64    `json:"rate_per_second"`
	Burst          int        `json:"burst"`
	LastTestAt     *time.Time `json:"last_test_at,omitempty"`
	LastTestOK     *bool      `json:"last_test_ok,omitempty"`
	LastTestError  *string    `json:"last_test_error,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
