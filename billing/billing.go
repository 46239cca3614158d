// Package billing wraps the Stripe calls used for plan checkout.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/customer"
	"github.com/stripe/stripe-go/v72/webhook"
)

// EventCheckoutCompleted is the only webhook event acted upon.
const EventCheckoutCompleted = "checkout.session.completed"

// ErrNotConfigured is returned when no Stripe key is set.
var ErrNotConfigured = errors.New("billing is not configured")

// Gateway is the payment provider used by the billing handlers.
type Gateway interface {
	CreateCustomer(ctx context.Context, userID, email, name string) (string, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	PlanID     string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified webhook event. Session fields are set for checkout
// events only.
type Event struct {
	Type      string
	SessionID string
	UserID    string
	PlanID    string
}

// Stripe implements Gateway with the Stripe API.
type Stripe struct {
	customers     *customer.Client
	sessions      *session.Client
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &Stripe{
		customers:     &customer.Client{B: backend, Key: secretKey},
		sessions:      &session.Client{B: backend, Key: secretKey},
		webhookSecret: webhookSecret,
	}
}

func (s *Stripe) CreateCustomer(ctx context.Context, userID, email, name string) (string, error) {
	if s.customers.Key == "" {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	params.AddMetadata("userId", userID)

	c, err := s.customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return c.ID, nil
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if s.sessions.Key == "" {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Customer:           stripe.String(p.CustomerID),
		ClientReferenceID:  stripe.String(p.UserID),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	params.AddMetadata("userId", p.UserID)
	params.AddMetadata("planId", p.PlanID)

	cs, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: cs.ID, URL: cs.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if s.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	evt, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}

	out := &Event{Type: string(evt.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = cs.ID
	out.UserID = cs.ClientReferenceID
	if out.UserID == "" {
		out.UserID = cs.Metadata["userId"]
	}
	out.PlanID = cs.Metadata["planId"]
	return out, nil
}
