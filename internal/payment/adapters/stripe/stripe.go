package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/clubos/internal/clock"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

const SignatureHeader = "Stripe-Signature"

type Factory struct {
	clock clock.Clock
}

// NewFactory builds Stripe adapters. A nil clk uses the system clock.
func NewFactory(clk clock.Clock) *Factory {
	if clk == nil {
		clk = clock.System()
	}
	return &Factory{clock: clk}
}

func (f *Factory) Provider() string {
	return paymentdomain.ProviderStripe
}

// NewAdapter accepts an empty secret so the webhook can answer 500 instead of
// failing startup; Normalize reports ErrWebhookSecretMissing in that case.
func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Normalizer, error) {
	secret, _ := cfg.Config["webhook_secret"].(string)
	tolerance, _ := cfg.Config["tolerance"].(time.Duration)
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Adapter{
		webhookSecret: strings.TrimSpace(secret),
		tolerance:     tolerance,
		clock:         f.clock,
	}, nil
}

type Adapter struct {
	webhookSecret string
	tolerance     time.Duration
	clock         clock.Clock
}

func (a *Adapter) Provider() string {
	return paymentdomain.ProviderStripe
}

// Normalize verifies the signature before reading anything from the body.
func (a *Adapter) Normalize(_ context.Context, req *paymentdomain.WebhookRequest) (*paymentdomain.PaymentEvent, error) {
	if a.webhookSecret == "" {
		return nil, paymentdomain.ErrWebhookSecretMissing
	}
	if req == nil {
		return nil, paymentdomain.ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(req.Body, req.Header.Get(SignatureHeader), a.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                a.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrUnrecognizedPayload, err)
	}

	var outcome paymentdomain.Outcome
	switch event.Type {
	case stripego.EventTypeCheckoutSessionCompleted:
		outcome = paymentdomain.OutcomeApproved
	case stripego.EventTypeCheckoutSessionExpired:
		outcome = paymentdomain.OutcomeExpired
	default:
		return nil, fmt.Errorf("%w: event type %s", paymentdomain.ErrEventIgnored, event.Type)
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, paymentdomain.ErrUnrecognizedPayload
	}
	var session stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrUnrecognizedPayload, err)
	}

	bookingID := metadataValue(session.Metadata, "bookingId", "booking_id")
	if bookingID == "" {
		bookingID = strings.TrimSpace(session.ClientReferenceID)
	}
	if bookingID == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no booking reference", paymentdomain.ErrEventIgnored, session.ID)
	}

	normalized := &paymentdomain.PaymentEvent{
		Provider:          paymentdomain.ProviderStripe,
		ProviderEventID:   event.ID,
		ExternalReference: bookingID,
		FacilityID:        metadataValue(session.Metadata, "facilityId", "facility_id"),
		SessionID:         session.ID,
		Outcome:           outcome,
		OccurredAt:        a.occurredAt(event.Created),
	}
	if outcome == paymentdomain.OutcomeApproved {
		normalized.Amount = session.AmountTotal
		normalized.Currency = strings.ToUpper(string(session.Currency))
		normalized.ProviderPaymentID = session.ID
		if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
			normalized.ProviderPaymentID = session.PaymentIntent.ID
		}
	}
	return normalized, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func metadataValue(metadata map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(metadata[key]); value != "" {
			return value
		}
	}
	return ""
}

// occurredAt uses the event creation time, or the adapter clock when Stripe omits it.
func (a *Adapter) occurredAt(created int64) time.Time {
	if created == 0 {
		return a.clock.Now().UTC()
	}
	return time.Unix(created, 0).UTC()
}
