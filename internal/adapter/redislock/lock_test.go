package redislock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*Lock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "", time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestTryLock_Exclusive(t *testing.T) {
	lock, mr := setupLock(t)
	ctx := context.Background()

	release, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(DefaultKey))

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists(DefaultKey))

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryLock_ExpiresAfterTTL(t *testing.T) {
	lock, mr := setupLock(t)
	ctx := context.Background()

	_, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease_KeepsForeignLease(t *testing.T) {
	lock, mr := setupLock(t)
	ctx := context.Background()

	release, ok, err := lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok, err = lock.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	release()
	assert.True(t, mr.Exists(DefaultKey), "stale holder must not delete the new lease")
}

func TestTryLock_RedisDown(t *testing.T) {
	lock, mr := setupLock(t)
	mr.Close()

	_, ok, err := lock.TryLock(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, lock.CheckReadiness(context.Background()))
}
