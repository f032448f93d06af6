package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/clubos/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	HeaderRequestID     = "X-Request-Id"
	HeaderCorrelationID = "X-Correlation-Id"
)

// Routes hit by probes and scrapers log at debug level.
var quietRoutes = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps a handler error to the error_type and error_code fields.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware tags the request context with request and correlation ids,
// echoes both as response headers and writes one line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx, correlationID := obscontext.EnsureCorrelationID(
			obscontext.WithCorrelationID(ctx, c.GetHeader(HeaderCorrelationID)),
		)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderCorrelationID, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log := FromContext(c.Request.Context())
		if log == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, errorFields(cfg, last.Err, status)...)
		}

		level := zapcore.InfoLevel
		switch {
		case quietRoutes[route]:
			level = zapcore.DebugLevel
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		}
		log.Log(level, "http_request", fields...)
	}
}

func errorFields(cfg MiddlewareConfig, err error, status int) []zap.Field {
	var errType, errCode string
	if cfg.ErrorClassifier != nil {
		errType, errCode = cfg.ErrorClassifier(err)
	}
	fields := []zap.Field{
		zap.String("error_type", errType),
		zap.String("error_code", errCode),
	}
	// Client errors are expected traffic; only server faults carry the cause.
	if status >= http.StatusInternalServerError {
		fields = append(fields, zap.Error(err))
	}
	if cfg.Debug {
		fields = append(fields, zap.Stack("stack"))
	}
	return fields
}
