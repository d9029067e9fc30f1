package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"realtime-chat/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisService(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisService(database.NewRedisClient(client), log), mr
}

func TestRedisService_PresenceMirror(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedisService(t)

	require.NoError(t, svc.SetUserOnline(ctx, 7))
	require.NoError(t, svc.SetUserOnline(ctx, 8))

	members, err := mr.Members(onlineUsersKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"7", "8"}, members)
	assert.Equal(t, "online", mr.HGet("user:7:status", "status"))
	assert.Zero(t, mr.TTL("user:7:status"))

	require.NoError(t, svc.SetUserOffline(ctx, 7))

	online, err := mr.IsMember(onlineUsersKey, "7")
	require.NoError(t, err)
	assert.False(t, online)
	assert.Equal(t, "offline", mr.HGet("user:7:status", "status"))
	assert.Equal(t, 24*time.Hour, mr.TTL("user:7:status"))
}

func TestRedisService_OnlineStatusOutlivesIdleTime(t *testing.T) {
	ctx := context.Background()
	svc, mr := newTestRedisService(t)

	// a reconnect after an earlier disconnect must clear the offline expiry
	require.NoError(t, svc.SetUserOffline(ctx, 7))
	require.NoError(t, svc.SetUserOnline(ctx, 7))

	mr.FastForward(25 * time.Hour)

	assert.True(t, mr.Exists("user:7:status"))
	assert.Equal(t, "online", mr.HGet("user:7:status", "status"))
	online, err := mr.IsMember(onlineUsersKey, "7")
	require.NoError(t, err)
	assert.True(t, online)
}

func TestRedisService_ServerDown(t *testing.T) {
	svc, mr := newTestRedisService(t)
	mr.SetError("ERR server unavailable")

	assert.Error(t, svc.SetUserOnline(context.Background(), 1))
}

func TestRedisService_CheckRateLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRedisService(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		ok, err := svc.CheckRateLimit(ctx, "ratelimit:ws:1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := svc.CheckRateLimit(ctx, "ratelimit:ws:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys have their own budget
	ok, err = svc.CheckRateLimit(ctx, "ratelimit:ws:5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// once the window has slid past, hits are allowed again
	svc.now = func() time.Time { return base.Add(2 * time.Minute) }
	ok, err = svc.CheckRateLimit(ctx, "ratelimit:ws:1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
