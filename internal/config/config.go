package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverSQL       = "sql"
	StoreDriverFirestore = "firestore"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	StoreDriver string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool

	Firestore   FirestoreConfig
	Auth        AuthConfig
	Access      AccessConfig
	Stripe      StripeConfig
	MercadoPago MercadoPagoConfig
	RateLimit   RateLimitConfig
	Events      EventsConfig

	CORSAllowedOrigins []string
	SnowflakeNode      int64
}

// TelemetryConfig drives logging and trace export.
type TelemetryConfig struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	TracingEnabled bool
	OTLPEndpoint   string
	OTLPProtocol   string
	SamplingRatio  float64
}

type FirestoreConfig struct {
	ProjectID       string
	EmulatorHost    string
	CredentialsFile string
}

type AuthConfig struct {
	JWTSecret         string
	JWTIssuer         string
	SessionCookieName string
}

type AccessConfig struct {
	PrivilegedEmails []string
	AdminToken       string
	ConfigFile       string
}

type StripeConfig struct {
	WebhookSecret    string
	WebhookTolerance time.Duration
}

type MercadoPagoConfig struct {
	AccessToken  string
	APIBaseURL   string
	FetchTimeout time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LookupRate  float64
	LookupBurst int
	LeadRate    float64
	LeadBurst   int

	ReconcileLockTTL time.Duration
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "clubos"),
		AppVersion:  getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment: getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		StoreDriver: normalizeStoreDriver(getenv("STORE_DRIVER", StoreDriverSQL)),

		Telemetry: TelemetryConfig{
			LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
			LogFormat:      strings.ToLower(getenv("LOG_FORMAT", "json")),
			LogFile:        strings.TrimSpace(getenv("LOG_FILE", "")),
			TracingEnabled: getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:   getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
			OTLPProtocol:   strings.ToLower(getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio:  getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "clubos"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),

		Firestore: FirestoreConfig{
			ProjectID:       strings.TrimSpace(getenv("FIRESTORE_PROJECT_ID", "")),
			EmulatorHost:    strings.TrimSpace(getenv("FIRESTORE_EMULATOR_HOST", "")),
			CredentialsFile: strings.TrimSpace(getenv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		},
		Auth: AuthConfig{
			JWTSecret:         strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			JWTIssuer:         strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "")),
			SessionCookieName: getenv("AUTH_SESSION_COOKIE", "__session"),
		},
		Access: AccessConfig{
			PrivilegedEmails: parseList(getenv("PRIVILEGED_EMAILS", "")),
			AdminToken:       strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
			ConfigFile:       strings.TrimSpace(getenv("ACCESS_CONFIG_FILE", "")),
		},
		Stripe: StripeConfig{
			WebhookSecret:    strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			WebhookTolerance: getenvDuration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:  strings.TrimSpace(getenv("MERCADOPAGO_ACCESS_TOKEN", "")),
			APIBaseURL:   strings.TrimRight(getenv("MERCADOPAGO_API_BASE", "https://api.mercadopago.com"), "/"),
			FetchTimeout: getenvDuration("MERCADOPAGO_FETCH_TIMEOUT", 5*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:          getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:        strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword:    getenv("REDIS_PASSWORD", ""),
			RedisDB:          getenvInt("REDIS_DB", 0),
			LookupRate:       getenvFloat("RATE_LIMIT_LOOKUP_RATE", 5),
			LookupBurst:      getenvInt("RATE_LIMIT_LOOKUP_BURST", 20),
			LeadRate:         getenvFloat("RATE_LIMIT_LEAD_RATE", 0.1),
			LeadBurst:        getenvInt("RATE_LIMIT_LEAD_BURST", 3),
			ReconcileLockTTL: getenvDuration("RECONCILE_LOCK_TTL", 15*time.Second),
		},
		Events: EventsConfig{
			AMQPURL:  strings.TrimSpace(getenv("AMQP_URL", "")),
			Exchange: getenv("AMQP_EXCHANGE", "clubos.bookings"),
		},
		CORSAllowedOrigins: parseList(getenv("CORS_ALLOWED_ORIGINS", "")),
		SnowflakeNode:      getenvInt64("SNOWFLAKE_NODE", 1),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeStoreDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreDriverFirestore:
		return StoreDriverFirestore
	default:
		return StoreDriverSQL
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
