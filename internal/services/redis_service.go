package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"realtime-chat/internal/database"

	"github.com/redis/go-redis/v9"
)

const onlineUsersKey = "online_users"

func userStatusKey(userID uint) string {
	return fmt.Sprintf("user:%d:status", userID)
}

// RedisService mirrors presence into redis and backs the connection rate limit
type RedisService struct {
	client *database.RedisClient
	log    *slog.Logger
	now    func() time.Time
}

func NewRedisService(client *database.RedisClient, log *slog.Logger) *RedisService {
	return &RedisService{client: client, log: log, now: time.Now}
}

// =============================================================================
// User Status Management
// =============================================================================

func (r *RedisService) SetUserOnline(ctx context.Context, userID uint) error {
	now := r.now().Unix()
	pipe := r.client.GetClient().Pipeline()

	pipe.SAdd(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":     "online",
		"last_seen":  now,
		"updated_at": now,
	})
	// online entries live until the matching SetUserOffline
	pipe.Persist(ctx, userStatusKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set user %d online: %w", userID, err)
	}
	r.log.Debug("User set to online", "userID", userID)
	return nil
}

func (r *RedisService) SetUserOffline(ctx context.Context, userID uint) error {
	now := r.now().Unix()
	pipe := r.client.GetClient().Pipeline()

	pipe.SRem(ctx, onlineUsersKey, userID)
	pipe.HSet(ctx, userStatusKey(userID), map[string]interface{}{
		"status":     "offline",
		"last_seen":  now,
		"updated_at": now,
	})
	// offline status is kept around longer
	pipe.Expire(ctx, userStatusKey(userID), 24*time.Hour)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set user %d offline: %w", userID, err)
	}
	r.log.Debug("User set to offline", "userID", userID)
	return nil
}

// =============================================================================
// Rate Limiting
// =============================================================================

// CheckRateLimit records one hit on key and reports whether it is still
// within limit hits per sliding window.
func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	windowStart := now.Add(-window).UnixMilli()

	pipe := r.client.GetClient().Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return count.Val() < int64(limit), nil
}
