package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

var (
	ErrNotConfigured = errors.New("ratelimit: bucket not configured")
	ErrInvalidPolicy = errors.New("ratelimit: key, rate and burst are required")
)

// takeToken refills the bucket at KEYS[1] from the elapsed redis clock time
// and spends one token when a whole one is available.
// ARGV: rate per second, burst, ttl in milliseconds.
// Returns {admitted (0|1), remaining tokens as a string}.
var takeToken = redis.NewScript(`
local rate, burst, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])
local clock = redis.call("TIME")
local nowMs = clock[1] * 1000 + math.floor(clock[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local level = tonumber(state[1]) or burst
local last = tonumber(state[2]) or nowMs
local elapsed = math.max(0, nowMs - last)
level = math.min(burst, level + elapsed * rate / 1000)

local admitted = 0
if level >= 1 then
  level = level - 1
  admitted = 1
end

redis.call("HSET", KEYS[1], "tokens", level, "ts", nowMs)
redis.call("PEXPIRE", KEYS[1], ttl)
return {admitted, tostring(level)}
`)

// TokenBucket is a redis-backed token bucket shared by every replica.
type TokenBucket struct {
	client *redis.Client
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client}
}

func (t *TokenBucket) Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error) {
	if t == nil || t.client == nil {
		return nil, ErrNotConfigured
	}
	if key == "" || rate <= 0 || burst <= 0 {
		return nil, ErrInvalidPolicy
	}

	reply, err := takeToken.Run(ctx, t.client, []string{key}, rate, burst, bucketTTL(rate, burst).Milliseconds()).Slice()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: take token: %w", err)
	}
	admitted, level, err := decodeReply(reply)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Allowed:   admitted,
		Limit:     burst,
		Remaining: int(math.Floor(level)),
	}
	if !res.Allowed {
		res.RetryAfter = retryAfter(level, rate)
	}
	return res, nil
}

// decodeReply reads the script reply. Lua numbers come back as integers, so
// the token level travels as a string to keep its fraction.
func decodeReply(reply []any) (bool, float64, error) {
	if len(reply) != 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected script reply of %d values", len(reply))
	}
	admitted, err := cast.ToInt64E(reply[0])
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: decode admitted flag: %w", err)
	}
	level, err := cast.ToFloat64E(reply[1])
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: decode token level: %w", err)
	}
	return admitted == 1, level, nil
}

// retryAfter is the time until one whole token is available again.
func retryAfter(level, rate float64) time.Duration {
	if level >= 1 || rate <= 0 {
		return 0
	}
	return time.Duration((1 - level) / rate * float64(time.Second))
}

// bucketTTL keeps idle buckets for twice the time a full refill takes.
func bucketTTL(rate float64, burst int) time.Duration {
	return time.Duration(max(1, math.Ceil(2*float64(burst)/rate))) * time.Second
}
