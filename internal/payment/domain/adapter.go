package domain

import "context"

type Normalizer interface {
	Provider() string
	Normalize(ctx context.Context, req *WebhookRequest) (*PaymentEvent, error)
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (Normalizer, error)
}
