package services

import (
	"context"
	"time"
)

// CreateSessionInput carries everything a provider needs to open a
// checkout session. Amounts are integer minor-currency units (cents).
type CreateSessionInput struct {
	AmountCents int64
	Description string
	SuccessURL  string
	CancelURL   string
	ExpiresAt   time.Time
}

// CheckoutSession is an opaque reference to an external checkout session
type CheckoutSession struct {
	URL string
	ID  string
}

// PaymentProvider is the external payment processor capability.
// The orchestrator only ever needs these two operations, which keeps
// the compensation logic testable against a stub provider.
type PaymentProvider interface {
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CheckoutSession, error)
	VerifySession(ctx context.Context, sessionID string) (bool, error)
}
