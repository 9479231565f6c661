// Package bootstrap wires the shared runtime used by the server and the
// command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	ApplySchema bool
	SeedGroups  bool
}

// Runtime holds the connections every entry point needs.
type Runtime struct {
	DB        *gorm.DB
	Redis     *redis.Client
	PageCache cache.PageCache
}

// InitRuntime connects to the database and Redis, then optionally applies
// the schema and upserts the built-in groups. Redis is optional: without it
// the page cache falls back to memory and realtime events are dropped.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if opts.SeedGroups {
		fixtures, err := seed.LoadGroupFixtures("")
		if err != nil {
			return nil, err
		}
		if _, err := seed.Groups(ctx, db, fixtures); err != nil {
			return nil, fmt.Errorf("failed to seed built-in groups: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: rdb, PageCache: NewPageCache(cfg, rdb)}, nil
}

// NewPageCache picks the page cache backend from config.
func NewPageCache(cfg *config.Config, rdb *redis.Client) cache.PageCache {
	if cfg.PageCacheBackend == "memory" || rdb == nil {
		if cfg.PageCacheBackend != "memory" {
			slog.Warn("redis unavailable, using in-process page cache")
		}
		return cache.NewMemoryPageCache(cfg.PageCacheTTL)
	}
	return cache.NewRedisPageCache(rdb, cfg.PageCacheTTL)
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() {
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
