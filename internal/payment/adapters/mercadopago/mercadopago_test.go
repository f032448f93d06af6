package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/clubos/internal/clock"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "APP_USR-test"

func newPaymentServer(t *testing.T, payments map[string]map[string]any) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		id := r.URL.Path[len("/v1/payments/"):]
		payment, ok := payments[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payment)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestAdapter(t *testing.T, baseURL string, timeout time.Duration) paymentdomain.Normalizer {
	t.Helper()
	adapter, err := NewFactory(nil).NewAdapter(paymentdomain.AdapterConfig{Config: map[string]any{
		"access_token":  testToken,
		"api_base_url":  baseURL,
		"fetch_timeout": timeout,
	}})
	require.NoError(t, err)
	return adapter
}

func queryRequest(values url.Values) *paymentdomain.WebhookRequest {
	return &paymentdomain.WebhookRequest{Query: values, Header: http.Header{}}
}

func TestNormalizeFallsBackToClockWithoutDates(t *testing.T) {
	srv, _ := newPaymentServer(t, map[string]map[string]any{
		"77": {"id": 77, "status": "rejected", "external_reference": "B7", "date_approved": "not-a-date"},
	})
	now := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	adapter, err := NewFactory(clock.NewFakeClock(now)).NewAdapter(paymentdomain.AdapterConfig{Config: map[string]any{
		"access_token": testToken,
		"api_base_url": srv.URL,
	}})
	require.NoError(t, err)

	event, err := adapter.Normalize(context.Background(), queryRequest(url.Values{"data.id": {"77"}, "type": {"payment"}}))
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeRejected, event.Outcome)
	assert.Equal(t, now, event.OccurredAt)
}

func TestNormalizeApprovedFromQuery(t *testing.T) {
	srv, _ := newPaymentServer(t, map[string]map[string]any{
		"123": {
			"id":                 123,
			"status":             "approved",
			"status_detail":      "accredited",
			"external_reference": "B2",
			"transaction_amount": 150.5,
			"currency_id":        "brl",
			"date_approved":      "2026-03-01T10:00:00.000-03:00",
		},
	})
	adapter := newTestAdapter(t, srv.URL, time.Second)

	event, err := adapter.Normalize(context.Background(), queryRequest(url.Values{"id": {"123"}, "topic": {"payment"}}))
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.ProviderMercadoPago, event.Provider)
	assert.Equal(t, paymentdomain.OutcomeApproved, event.Outcome)
	assert.Equal(t, "B2", event.ExternalReference)
	assert.Empty(t, event.FacilityID)
	assert.Equal(t, "123", event.ProviderPaymentID)
	assert.Equal(t, int64(15050), event.Amount)
	assert.Equal(t, "BRL", event.Currency)
	assert.Equal(t, time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC), event.OccurredAt)
}

func TestNormalizeBodyShapes(t *testing.T) {
	srv, _ := newPaymentServer(t, map[string]map[string]any{
		"777": {"id": 777, "status": "rejected", "status_detail": "cc_rejected_insufficient_amount", "external_reference": "B7"},
	})
	adapter := newTestAdapter(t, srv.URL, time.Second)

	bodies := []string{
		`{"type":"payment","data":{"id":"777"}}`,
		`{"action":"payment.updated","data":{"id":777}}`,
		`{"id":777}`,
	}
	for _, body := range bodies {
		event, err := adapter.Normalize(context.Background(), &paymentdomain.WebhookRequest{Body: []byte(body)})
		require.NoError(t, err, body)
		assert.Equal(t, paymentdomain.OutcomeRejected, event.Outcome)
		assert.Equal(t, "cc_rejected_insufficient_amount", event.StatusDetail)
	}
}

func TestNormalizeQueryDataID(t *testing.T) {
	srv, _ := newPaymentServer(t, map[string]map[string]any{
		"55": {"id": 55, "status": "cancelled", "external_reference": "B5"},
	})

	event, err := newTestAdapter(t, srv.URL, time.Second).Normalize(context.Background(), queryRequest(url.Values{"data.id": {"55"}, "type": {"payment"}}))
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OutcomeCancelled, event.Outcome)
}

func TestNormalizeIgnored(t *testing.T) {
	srv, hits := newPaymentServer(t, map[string]map[string]any{
		"1": {"id": 1, "status": "in_process", "external_reference": "B1"},
		"2": {"id": 2, "status": "approved"},
	})
	adapter := newTestAdapter(t, srv.URL, time.Second)

	tests := map[string]*paymentdomain.WebhookRequest{
		"no id":             queryRequest(url.Values{}),
		"other topic":       queryRequest(url.Values{"id": {"9"}, "topic": {"merchant_order"}}),
		"pending status":    queryRequest(url.Values{"id": {"1"}}),
		"missing reference": queryRequest(url.Values{"id": {"2"}}),
		"unknown payment":   queryRequest(url.Values{"id": {"404"}}),
		"garbage body":      {Body: []byte("not json")},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.Normalize(context.Background(), req)
			assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
		})
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestNormalizeFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	adapter := newTestAdapter(t, srv.URL, 50*time.Millisecond)
	start := time.Now()
	_, err := adapter.Normalize(context.Background(), queryRequest(url.Values{"id": {"123"}}))
	assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNormalizeWithoutAccessToken(t *testing.T) {
	adapter, err := NewFactory(nil).NewAdapter(paymentdomain.AdapterConfig{Config: map[string]any{}})
	require.NoError(t, err)

	_, err = adapter.Normalize(context.Background(), queryRequest(url.Values{"id": {"123"}}))
	assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, int64(100), toMinorUnits(1))
	assert.Equal(t, int64(0), toMinorUnits(0))
}
