package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/clubos/internal/config"
)

const (
	EndpointLookup = "lookup"
	EndpointLead   = "lead"

	keyPublic = "clubos:ratelimit:%s:%s"
)

type policy struct {
	rate  float64
	burst int
}

// PublicLimiter throttles unauthenticated endpoints per client key.
// A nil limiter allows everything.
type PublicLimiter struct {
	bucket   *TokenBucket
	policies map[string]policy
}

func NewPublicLimiter(client *redis.Client, cfg config.Config) (*PublicLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil {
		return nil, nil
	}
	if limitCfg.LookupRate <= 0 || limitCfg.LookupBurst <= 0 {
		return nil, fmt.Errorf("lookup rate limit must be positive")
	}
	if limitCfg.LeadRate <= 0 || limitCfg.LeadBurst <= 0 {
		return nil, fmt.Errorf("lead rate limit must be positive")
	}

	return &PublicLimiter{
		bucket: NewTokenBucket(client),
		policies: map[string]policy{
			EndpointLookup: {rate: limitCfg.LookupRate, burst: limitCfg.LookupBurst},
			EndpointLead:   {rate: limitCfg.LeadRate, burst: limitCfg.LeadBurst},
		},
	}, nil
}

func (l *PublicLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *PublicLimiter) Allow(ctx context.Context, endpoint, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	p, ok := l.policies[endpoint]
	if !ok {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyPublic, endpoint, strings.TrimSpace(clientKey))
	return l.bucket.Allow(ctx, key, p.rate, p.burst)
}
