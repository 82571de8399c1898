package models

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a client of the accounting office.
// AFM is the Greek tax identification number (ΑΦΜ) and is unique.
type Client struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	AFM       string     `json:"afm"`
	DOY       string     `json:"doy"` // tax office (ΔΟΥ)
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
	Active    bool       `json:"active"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
