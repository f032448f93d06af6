package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "stripe"),
		attribute.String("booking_id", "B1"),
		attribute.String("email", "someone@example.com"),
		attribute.String("event_type", "approved"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("provider"), attrs[0].Key)
	assert.Equal(t, attribute.Key("event_type"), attrs[1].Key)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordPaymentEvent(t.Context(), "stripe", "approved")
	m.RecordReconcile(t.Context(), "stripe", "noop")
	m.RecordRoleResolution(t.Context(), "allowlist", "platform_admin")
	m.RecordRateLimitDenied(t.Context(), "/api/bookings/lookup")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "clubos-test"}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordPaymentEvent(t.Context(), "mercadopago", "rejected")
}

func TestDomainCountersRecordLabels(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	m, err := New(Config{ServiceName: "clubos-test"}, provider)
	require.NoError(t, err)
	m.RecordReconcile(t.Context(), " stripe ", "applied")
	m.RecordReconcile(t.Context(), "stripe", "applied")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var sum metricdata.Sum[int64]
	for _, rec := range rm.ScopeMetrics[0].Metrics {
		if rec.Name == "clubos_booking_reconcile_total" {
			sum = rec.Data.(metricdata.Sum[int64])
		}
	}
	require.Len(t, sum.DataPoints, 1)
	point := sum.DataPoints[0]
	assert.Equal(t, int64(2), point.Value)

	value, ok := point.Attributes.Value("provider")
	require.True(t, ok)
	assert.Equal(t, "stripe", value.AsString())
}

func TestHTTPMetricsMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "clubos", Environment: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues("/health", http.MethodGet, "200")))
}

func TestHTTPMetricsCarryServiceLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "clubos", Environment: "test"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/bookings/lookup", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/bookings/lookup?booking_id=x", nil))

	families, err := registry.Gather()
	require.NoError(t, err)

	var requests *dto.MetricFamily
	for _, family := range families {
		if family.GetName() == "clubos_http_requests_total" {
			requests = family
		}
	}
	require.NotNil(t, requests)
	require.Len(t, requests.GetMetric(), 1)

	labels := map[string]string{}
	for _, pair := range requests.GetMetric()[0].GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	assert.Equal(t, "clubos", labels["service"])
	assert.Equal(t, "test", labels["env"])
	assert.Equal(t, "/api/bookings/lookup", labels["route"])
	assert.Equal(t, "404", labels["status_code"])
}
