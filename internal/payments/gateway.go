// Package payments defines the payment gateway capability used by checkout
// and the providers that implement it.
package payments

import (
	"context"
	"errors"
)

var (
	ErrInvalidAmount = errors.New("invalid amount for payment intent")
	ErrMissingIntent = errors.New("missing payment intent id")
)

// IntentRequest asks a provider to authorize an amount.
type IntentRequest struct {
	Amount   float64
	Currency string
	Metadata map[string]string
}

// PaymentIntent is the provider-side authorization handle. Only ID is persisted.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret"`
	Provider     string            `json:"provider"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ConfirmRequest is the client-reported outcome of a payment attempt.
type ConfirmRequest struct {
	Status  string
	Payload map[string]any
}

// Confirmation is the provider's verdict on a payment intent.
type Confirmation struct {
	Success  bool           `json:"success"`
	Provider string         `json:"provider"`
	Raw      map[string]any `json:"raw,omitempty"`
}

// Gateway issues and confirms payment intents.
type Gateway interface {
	Name() string
	IssueIntent(ctx context.Context, req IntentRequest) (*PaymentIntent, error)
	ConfirmIntent(ctx context.Context, intentID string, req ConfirmRequest) (*Confirmation, error)
}

// IsCallerError reports whether err was caused by bad input rather than the provider.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrMissingIntent)
}
