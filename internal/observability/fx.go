package observability

import (
	"github.com/smallbiznis/clubos/internal/observability/logger"
	"github.com/smallbiznis/clubos/internal/observability/metrics"
	"github.com/smallbiznis/clubos/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.loggerConfig,
		Config.tracingConfig,
		Config.metricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider installs itself globally on construction.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func (c Config) loggerConfig() logger.Config {
	debug := c.Debug()
	return logger.Config{
		ServiceName:         c.Service,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.Telemetry.LogLevel,
		Format:              c.Telemetry.LogFormat,
		FilePath:            c.Telemetry.LogFile,
		Debug:               debug,
		IncludeCaller:       true,
		IncludeStackOnError: debug,
	}
}

func (c Config) tracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.Telemetry.TracingEnabled,
		ServiceName:      c.Service,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.Telemetry.OTLPEndpoint,
		ExporterProtocol: c.Telemetry.OTLPProtocol,
		SamplingRatio:    c.Telemetry.SamplingRatio,
	}
}

func (c Config) metricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.Telemetry.TracingEnabled,
		ServiceName:      c.Service,
		Environment:      c.Environment,
		ExporterEndpoint: c.Telemetry.OTLPEndpoint,
		ExporterProtocol: c.Telemetry.OTLPProtocol,
	}
}
