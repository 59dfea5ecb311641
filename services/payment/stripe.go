package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"tourbook/config"
	"tourbook/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// CheckoutRequest describes the single line item of a tour purchase.
type CheckoutRequest struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	Price         float64
	UserID        string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Gateway is the payment provider used by checkout.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error)
	// GetCheckoutSession retrieves a session reduced to the booking fields.
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutEvent, error)
	// ParseWebhook verifies and decodes a provider callback.
	ParseWebhook(payload []byte, signature string) (*models.CheckoutEvent, error)
}

// StripeGateway implements Gateway with Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeGateway() *StripeGateway {
	cfg := config.AppConfig
	return &StripeGateway{
		api:           client.New(cfg.StripeSecretKey, nil),
		webhookSecret: cfg.StripeWebhookSecret,
		currency:      cfg.CheckoutCurrency,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		CustomerEmail:      stripe.String(req.CustomerEmail),
		ClientReferenceID:  stripe.String(req.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.currency),
				UnitAmount: stripe.Int64(toCents(req.Price)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.TourName + " Tour"),
					Description: stripe.String(req.Summary),
					Images:      stripe.StringSlice([]string{req.ImageURL}),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("tourId", req.TourID)
	params.AddMetadata("tourPrice", strconv.FormatFloat(req.Price, 'f', -1, 64))
	params.SetIdempotencyKey(uuid.NewString())

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &models.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutEvent, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session %s: %w", sessionID, err)
	}
	ev := fromSession(s)
	if ev.PaymentStatusPaid {
		ev.State = models.CheckoutConfirmed
	} else {
		ev.State = models.CheckoutPending
	}
	return ev, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*models.CheckoutEvent, error) {
	return parseWebhook(payload, signature, g.webhookSecret)
}

func parseWebhook(payload []byte, signature, secret string) (*models.CheckoutEvent, error) {
	if signature == "" || secret == "" {
		return nil, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	state := stateFor(event.Type)
	if state == "" {
		return &models.CheckoutEvent{EventID: event.ID, Type: string(event.Type)}, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	ev := fromSession(&s)
	ev.EventID = event.ID
	ev.Type = string(event.Type)
	ev.State = state
	// A completed session whose payment is still settling is not a booking yet.
	if state == models.CheckoutConfirmed && event.Type == stripe.EventTypeCheckoutSessionCompleted && !ev.PaymentStatusPaid {
		ev.State = models.CheckoutPending
	}
	return ev, nil
}

func stateFor(t stripe.EventType) models.CheckoutState {
	switch t {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return models.CheckoutConfirmed
	case stripe.EventTypeCheckoutSessionExpired, stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		return models.CheckoutAbandoned
	}
	return ""
}

// fromSession prefers the metadata written at creation and falls back to
// the client reference and the charged total.
func fromSession(s *stripe.CheckoutSession) *models.CheckoutEvent {
	ev := &models.CheckoutEvent{
		SessionID:         s.ID,
		TourID:            s.Metadata["tourId"],
		UserID:            s.Metadata["userId"],
		PaymentStatusPaid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if ev.TourID == "" {
		ev.TourID = s.ClientReferenceID
	}
	if price, err := strconv.ParseFloat(s.Metadata["tourPrice"], 64); err == nil && price > 0 {
		ev.Price = price
	} else if s.AmountTotal > 0 {
		ev.Price = float64(s.AmountTotal) / 100
	}
	return ev
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
