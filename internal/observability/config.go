package observability

import (
	"strings"

	"github.com/smallbiznis/clubos/internal/config"
)

const defaultServiceName = "clubos"

// Config identifies the running service to the logger, tracer and metrics.
type Config struct {
	Service     string
	Environment string
	Version     string
	Telemetry   config.TelemetryConfig
}

func LoadConfig(cfg config.Config) Config {
	service := strings.TrimSpace(cfg.AppName)
	if service == "" {
		service = defaultServiceName
	}
	return Config{
		Service:     service,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		Telemetry:   cfg.Telemetry,
	}
}

// Debug is true for debug logging or any non-deployed environment.
func (c Config) Debug() bool {
	if c.Telemetry.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
