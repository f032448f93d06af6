package webhook

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/clubos/internal/config"
	obsmetrics "github.com/smallbiznis/clubos/internal/observability/metrics"
	"github.com/smallbiznis/clubos/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	Adapters   *adapters.Registry
	Reconciler paymentdomain.Reconciler
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	reconciler paymentdomain.Reconciler
	obsMetrics *obsmetrics.Metrics
	normalizer map[string]paymentdomain.Normalizer
}

// NewService builds one normalizer per provider from process configuration.
func NewService(p Params) (*Service, error) {
	providerConfigs := map[string]paymentdomain.AdapterConfig{
		paymentdomain.ProviderStripe: {Config: map[string]any{
			"webhook_secret": p.Cfg.Stripe.WebhookSecret,
			"tolerance":      p.Cfg.Stripe.WebhookTolerance,
		}},
		paymentdomain.ProviderMercadoPago: {Config: map[string]any{
			"access_token":  p.Cfg.MercadoPago.AccessToken,
			"api_base_url":  p.Cfg.MercadoPago.APIBaseURL,
			"fetch_timeout": p.Cfg.MercadoPago.FetchTimeout,
		}},
	}

	log := p.Log.Named("payment.webhook")
	normalizers, err := p.Adapters.Build(providerConfigs)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(p.Cfg.Stripe.WebhookSecret) == "" {
		log.Warn("stripe webhook secret not configured, stripe webhooks will answer 500")
	}
	if strings.TrimSpace(p.Cfg.MercadoPago.AccessToken) == "" {
		log.Warn("mercadopago access token not configured, notifications will be ignored")
	}

	return &Service{
		log:        log,
		reconciler: p.Reconciler,
		obsMetrics: p.ObsMetrics,
		normalizer: normalizers,
	}, nil
}

// Handle normalizes and reconciles one delivery. Only errors the caller can act
// on are returned: an unknown provider, a missing secret and a bad signature.
// Everything after signature verification is logged and acknowledged.
func (s *Service) Handle(ctx context.Context, provider string, req *paymentdomain.WebhookRequest) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	normalizer, ok := s.normalizer[provider]
	if !ok {
		return paymentdomain.ErrProviderNotFound
	}

	log := s.log.With(zap.String("provider", provider))
	event, err := normalizer.Normalize(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, paymentdomain.ErrWebhookSecretMissing):
		log.Error("webhook secret missing")
		return err
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		log.Warn("webhook signature rejected", zap.Error(err))
		return err
	case errors.Is(err, paymentdomain.ErrEventIgnored):
		log.Info("webhook ignored", zap.String("reason", err.Error()))
		s.recordEvent(ctx, provider, "ignored")
		return nil
	default:
		log.Warn("webhook payload not recognized", zap.Error(err))
		s.recordEvent(ctx, provider, "unrecognized")
		return nil
	}

	s.recordEvent(ctx, provider, string(event.Outcome))
	log = log.With(
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("booking_id", event.ExternalReference),
	)

	result, err := s.reconciler.Reconcile(ctx, event)
	if err != nil {
		log.Error("reconcile payment event failed", zap.Error(err))
		return nil
	}
	log.Debug("payment event reconciled",
		zap.String("result", string(result.Outcome)),
		zap.String("reason", result.Reason),
	)
	return nil
}

func (s *Service) recordEvent(ctx context.Context, provider, eventType string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordPaymentEvent(ctx, provider, eventType)
}
