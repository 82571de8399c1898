package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyCompleted is returned when completing an obligation twice
	ErrAlreadyCompleted = errors.New("obligation is already completed")

	// ErrLinkExpired is returned when a shared link's expiry has passed
	ErrLinkExpired = errors.New("shared link has expired")

	// ErrLinkExhausted is returned when a shared link has no downloads left
	ErrLinkExhausted = errors.New("shared link download limit reached")

	// ErrSMTPNotConfigured is returned when sending without saved settings
	ErrSMTPNotConfigured = errors.New("smtp settings are not configured")
)

// ValidationError describes a rejected input field. Handlers map it to a 400
// response with the field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsValidation reports whether err is a ValidationError
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
