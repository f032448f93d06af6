package metrics

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Label keys a domain counter may carry. Anything else is dropped so ids and
// emails never become series.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"status_code": {},
	"provider":    {},
	"event_type":  {},
	"result":      {},
	"source":      {},
	"role":        {},
}

// Metrics holds the domain counters. A nil *Metrics records nothing.
type Metrics struct {
	paymentEvents    counter
	reconcileResults counter
	roleResolutions  counter
	rateLimitDenied  counter
}

type counter struct {
	inst metric.Int64Counter
	keys []attribute.Key
}

func (c counter) inc(ctx context.Context, values ...string) {
	if c.inst == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(c.keys))
	for i, key := range c.keys {
		if i < len(values) {
			attrs = append(attrs, key.String(strings.TrimSpace(values[i])))
		}
	}
	c.inst.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

// New registers the domain counters on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	scope := strings.TrimSpace(cfg.ServiceName)
	if scope == "" {
		scope = "clubos"
	}
	meter := provider.Meter(scope)

	var (
		m   Metrics
		err error
	)
	build := func(dst *counter, name, description string, keys ...attribute.Key) {
		if err != nil {
			return
		}
		dst.keys = keys
		dst.inst, err = meter.Int64Counter(name, metric.WithDescription(description))
	}
	build(&m.paymentEvents, "clubos_payment_events_total", "Normalized payment webhook events.", "provider", "event_type")
	build(&m.reconcileResults, "clubos_booking_reconcile_total", "Booking reconciliation outcomes.", "provider", "result")
	build(&m.roleResolutions, "clubos_role_resolutions_total", "Role resolution decisions by source.", "source", "role")
	build(&m.rateLimitDenied, "clubos_rate_limit_denied_total", "Requests rejected by the public rate limiter.", "endpoint")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) RecordPaymentEvent(ctx context.Context, provider, eventType string) {
	if m != nil {
		m.paymentEvents.inc(ctx, provider, eventType)
	}
}

// RecordReconcile counts reconciliation results (applied, noop, error).
func (m *Metrics) RecordReconcile(ctx context.Context, provider, result string) {
	if m != nil {
		m.reconcileResults.inc(ctx, provider, result)
	}
}

// RecordRoleResolution counts which resolution step decided a caller's role.
func (m *Metrics) RecordRoleResolution(ctx context.Context, source, role string) {
	if m != nil {
		m.roleResolutions.inc(ctx, source, role)
	}
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m != nil {
		m.rateLimitDenied.inc(ctx, endpoint)
	}
}

// FilterAttributes keeps only the allowed label keys.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; ok {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
