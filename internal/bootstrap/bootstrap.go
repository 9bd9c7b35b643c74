// Package bootstrap builds the collaborators shared by the binaries from a
// config.Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/go-vacancies/internal/cache"
	"github.com/rsilvagit/go-vacancies/internal/config"
	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/httpclient"
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
)

var errNoRedis = errors.New("bootstrap: postgres job store needs redis for change notifications")

// SetupLogger installs a text slog handler writing to w as the default
// logger. Unknown levels fall back to info.
func SetupLogger(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// NewAPIClient builds the shared client for the external API.
func NewAPIClient(cfg config.APIConfig) (*httpclient.Client, error) {
	return httpclient.New(httpclient.Options{
		UserAgent:   cfg.UserAgent,
		ProxyURL:    cfg.ProxyURL,
		Timeout:     cfg.Timeout,
		MinInterval: cfg.MinInterval,
	})
}

// ConnectRedis opens the Redis client shared by the page cache and the change
// notifier. Without a Redis URL it returns nil. An unreachable Redis is fatal
// only when the Postgres store needs it for change notifications; otherwise
// it is logged and the binaries run without a page cache.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if cfg.Cache.RedisURL == "" {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := jobstore.NewRedisClient(ctx, cfg.Cache.RedisURL)
	if err != nil {
		if cfg.Store.DatabaseURL != "" {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		slog.Warn("redis unavailable, page cache disabled", "component", "bootstrap", "err", err)
		return nil, func() {}, nil
	}
	return rdb, func() { rdb.Close() }, nil
}

// NewFetcher returns the external API fetcher, behind the Redis page cache
// when rdb is not nil.
func NewFetcher(client fetcher.HTTPGetter, cfg *config.Config, rdb *redis.Client) fetcher.Fetcher {
	hh := fetcher.NewHH(client, cfg.API.BaseURL, cfg.API.PerPage)
	if rdb == nil {
		return hh
	}
	slog.Info("page cache enabled", "component", "bootstrap", "ttl", cfg.Cache.TTL)
	return fetcher.NewCached(hh, cache.NewWithClient(rdb, cfg.Cache.TTL), cfg.API.PerPage)
}

// NewPostings opens the local job store: Postgres with Redis change
// notifications when a database is configured, memory otherwise. rdb is
// owned by the caller.
func NewPostings(ctx context.Context, cfg *config.Config, rdb *redis.Client) (*jobstore.Adapter, func(), error) {
	if cfg.Store.DatabaseURL == "" {
		slog.Info("using in-memory job store", "component", "bootstrap")
		return jobstore.NewAdapter(jobstore.NewMemoryStore()), func() {}, nil
	}
	if rdb == nil {
		return nil, nil, errNoRedis
	}

	pool, err := jobstore.NewPostgresPool(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}

	store := jobstore.NewPostgresStore(pool, jobstore.NewRedisNotifier(rdb))
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}

	slog.Info("using postgres job store", "component", "bootstrap")
	return jobstore.NewAdapter(store), pool.Close, nil
}
