package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const defaultLeaseTTL = 15 * time.Second

var errEmptyLockKey = errors.New("ratelimit: lock key is empty")

// compareAndDelete drops KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
  return 0
end
return redis.call("DEL", KEYS[1])
`)

// Locker hands out short leases on redis keys. A lease expires on its own
// after the ttl, so a crashed holder never blocks a key for good.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Locker{client: client, ttl: ttl}
}

// TryLock returns the lease token and true when the key was free.
func (l *Locker) TryLock(ctx context.Context, key string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, ErrNotConfigured
	}
	if key == "" {
		return "", false, errEmptyLockKey
	}

	lease := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, lease, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("ratelimit: acquire %s: %w", key, err)
	}
	return lease, acquired, nil
}

// Release gives the key up if lease is still the holder. Releasing an
// expired or foreign lease is a no-op.
func (l *Locker) Release(ctx context.Context, key, lease string) error {
	if l == nil || l.client == nil || key == "" || lease == "" {
		return nil
	}
	return compareAndDelete.Run(ctx, l.client, []string{key}, lease).Err()
}
