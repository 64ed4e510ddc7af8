package service

import (
	"RefStack-Backend/internal/repository"
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing records and records owned by someone else.
	ErrNotFound  = repository.ErrNotFound
	ErrSlugTaken = repository.ErrSlugTaken

	ErrMissingSignature      = errors.New("missing webhook signature")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrWebhookNotConfigured  = errors.New("webhook secret not configured")
	ErrMalformedPayload      = errors.New("malformed webhook payload")
	ErrDomainExists          = repository.ErrDomainExists
	ErrPayPalNotConfigured   = errors.New("paypal api credentials not configured")
	ErrDomainTokenNotPresent = errors.New("verification record not found")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
