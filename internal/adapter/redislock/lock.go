// Package redislock keeps task runs exclusive across service instances.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the lease key shared by every instance.
const DefaultKey = "outage-alert:run-lock"

var releaseScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// Lock is a lease taken with SET NX and a TTL. The TTL bounds how long a
// crashed holder can block other instances.
type Lock struct {
	client goredis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Lock on client.
func New(client goredis.UniversalClient, key string, ttl time.Duration, logger *slog.Logger) *Lock {
	if key == "" {
		key = DefaultKey
	}
	return &Lock{client: client, key: key, ttl: ttl, logger: logger}
}

// NewFromURL connects to the Redis server at rawURL.
func NewFromURL(rawURL string, ttl time.Duration, logger *slog.Logger) (*Lock, goredis.UniversalClient, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	return New(client, DefaultKey, ttl, logger), client, nil
}

// TryLock takes the lease if nobody holds it. The returned release deletes
// the key only while this holder still owns it.
func (l *Lock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The run's context may already be cancelled; release regardless.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warn("release run lock failed", "key", l.key, "error", err)
		}
	}
	return release, true, nil
}

// CheckReadiness pings Redis.
func (l *Lock) CheckReadiness(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
