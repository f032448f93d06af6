package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/clubos/internal/observability/logger"
	"go.uber.org/zap"
)

// PublicRateLimit throttles unauthenticated routes per client IP.
// A failing limiter store lets the request through.
func (s *Server) PublicRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.limiter.Allow(ctx, endpoint, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("public rate limit check failed",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !result.Allowed {
			s.denyRateLimit(c, endpoint, result.RetryAfter.Seconds())
			return
		}
		c.Next()
	}
}

func (s *Server) denyRateLimit(c *gin.Context, endpoint string, retryAfterSeconds float64) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("public rate limit exceeded",
		zap.String("endpoint", endpoint),
		zap.String("client_ip", c.ClientIP()),
	)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)
	}

	retryAfter := int(math.Ceil(retryAfterSeconds))
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}
