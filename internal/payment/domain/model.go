// Package domain holds the provider-neutral payment event shape.
package domain

import (
	"net/http"
	"net/url"
	"time"
)

const (
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
)

type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeExpired   Outcome = "expired"
)

// PaymentEvent is one webhook delivery normalized to a single shape.
type PaymentEvent struct {
	Provider          string
	ProviderEventID   string
	ExternalReference string
	FacilityID        string
	SessionID         string
	Outcome           Outcome
	StatusDetail      string
	Amount            int64
	Currency          string
	ProviderPaymentID string
	OccurredAt        time.Time
}

// WebhookRequest is the raw inbound delivery handed to a normalizer.
type WebhookRequest struct {
	Body   []byte
	Header http.Header
	Query  url.Values
}

// AdapterConfig carries provider settings keyed the way the factory expects.
type AdapterConfig struct {
	Config map[string]any
}
