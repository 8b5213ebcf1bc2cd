package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"librental/internal/config"
	"librental/internal/core/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// StripeProvider implements PaymentProvider using Stripe Checkout
type StripeProvider struct {
	currency string
}

// NewStripeProvider creates a new Stripe payment provider
func NewStripeProvider(cfg *config.Config) *StripeProvider {
	stripe.Key = cfg.Stripe.SecretKey
	// Bounded request timeout so a slow provider cannot hold up a
	// borrowing creation indefinitely.
	stripe.SetHTTPClient(&http.Client{Timeout: cfg.Stripe.RequestTimeout})

	return &StripeProvider{currency: cfg.Stripe.Currency}
}

// CreateSession opens a new Stripe Checkout session
func (p *StripeProvider) CreateSession(ctx context.Context, input *CreateSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(p.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.Description),
					},
					UnitAmount: stripe.Int64(input.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		ExpiresAt:  stripe.Int64(input.ExpiresAt.Unix()),
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}

	return &CheckoutSession{URL: sess.URL, ID: sess.ID}, nil
}

// VerifySession checks whether a Stripe Checkout session was paid.
// An unknown session id is reported as not paid rather than an error.
func (p *StripeProvider) VerifySession(ctx context.Context, sessionID string) (bool, error) {
	sess, err := session.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrPaymentProvider, err)
	}

	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
