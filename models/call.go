package models

import (
	"time"

	"github.com/google/uuid"
)

// CallDirection represents whether a call was inbound or outbound
type CallDirection string

const (
	CallInbound  CallDirection = "inbound"
	CallOutbound CallDirection = "outbound"
)

// CallLog represents one VoIP call reported by the provider webhook.
// ClientID is filled when the remote number matches a client's phone.
type CallLog struct {
	ID              uuid.UUID     `json:"id"`
	ClientID        *uuid.UUID    `json:"client_id,omitempty"`
	Direction       CallDirection `json:"direction"`
	Caller          string        `json:"caller"`
	Callee          string        `json:"callee"`
	StartedAt       time.Time     `json:"started_at"`
	DurationSeconds int           `json:"duration_seconds"`
	ProviderCallID  string        `json:"provider_call_id"`
	Status          string        `json:"status"` // "answered", "missed", "busy", ...
	CreatedAt       time.Time     `json:"created_at"`
}
