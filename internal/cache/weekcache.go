// Package cache keeps composed week availability in Redis so repeated grid
// renders don't re-run the per-member composition. Redis failures are logged
// and treated as misses; the cache is an optimization, never a dependency.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bhanuc/aexy-availability/internal/model"
)

type WeekCache struct {
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	prefix string
}

func NewWeekCache(rdb *redis.Client, logger *slog.Logger, ttl time.Duration, prefix string) *WeekCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if prefix == "" {
		prefix = "avail"
	}
	return &WeekCache{rdb: rdb, logger: logger, ttl: ttl, prefix: prefix}
}

func (c *WeekCache) key(teamID, weekStart string) string {
	return c.prefix + ":week:" + teamID + ":" + weekStart
}

// teamSetKey tracks every cached week key for a team so writes can
// invalidate them without a SCAN.
func (c *WeekCache) teamSetKey(teamID string) string {
	return c.prefix + ":keys:" + teamID
}

func (c *WeekCache) Get(ctx context.Context, teamID, weekStart string) (model.TeamAvailability, bool) {
	if c == nil || c.rdb == nil {
		return model.TeamAvailability{}, false
	}
	raw, err := c.rdb.Get(ctx, c.key(teamID, weekStart)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("week cache get failed", "err", err)
		}
		return model.TeamAvailability{}, false
	}
	var av model.TeamAvailability
	if err := json.Unmarshal(raw, &av); err != nil {
		if c.logger != nil {
			c.logger.Warn("week cache entry corrupt; dropping", "err", err)
		}
		_ = c.rdb.Del(ctx, c.key(teamID, weekStart)).Err()
		return model.TeamAvailability{}, false
	}
	return av, true
}

func (c *WeekCache) Set(ctx context.Context, teamID, weekStart string, av model.TeamAvailability) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(av)
	if err != nil {
		return
	}
	key := c.key(teamID, weekStart)
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, c.teamSetKey(teamID), key)
	// The key set outlives entries slightly so invalidation still sees them.
	pipe.Expire(ctx, c.teamSetKey(teamID), 2*c.ttl)
	if _, err := pipe.Exec(ctx); err != nil && c.logger != nil {
		c.logger.Warn("week cache set failed", "err", err)
	}
}

// InvalidateTeam drops every cached week for the team. Called on any write
// that changes what a week view would show.
func (c *WeekCache) InvalidateTeam(ctx context.Context, teamID string) {
	if c == nil || c.rdb == nil {
		return
	}
	setKey := c.teamSetKey(teamID)
	keys, err := c.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("week cache invalidate failed", "err", err)
		}
		return
	}
	keys = append(keys, setKey)
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil && c.logger != nil {
		c.logger.Warn("week cache invalidate failed", "err", err)
	}
}

// ReadyCheck probes the Redis connection for /readyz.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return errors.New("redis not configured")
		}
		return rdb.Ping(ctx).Err()
	}
}
