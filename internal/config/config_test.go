package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadTelemetryPrefersOtelVariables(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("OTEL_ENABLED", "yes")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Telemetry.LogLevel)
	assert.Equal(t, "otel:4318", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, "http", cfg.Telemetry.OTLPProtocol)
	assert.Equal(t, 0.5, cfg.Telemetry.SamplingRatio)
	assert.True(t, cfg.Telemetry.TracingEnabled)
}

func TestLoadDeploymentEnvOverridesEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("DEPLOYMENT_ENV", "production")

	cfg := Load()

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
}
