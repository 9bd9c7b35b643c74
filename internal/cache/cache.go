package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
)

// Cache keeps fetched result pages in Redis so repeated searches for the same
// region, text and page do not hit the external API again within the TTL.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewWithClient wraps an existing Redis client. The caller owns its lifecycle.
func NewWithClient(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached page for the source/query combination, if present.
func (c *Cache) Get(ctx context.Context, source string, q fetcher.Query) (fetcher.Page, bool) {
	data, err := c.client.Get(ctx, buildKey(source, q)).Bytes()
	if err != nil {
		return fetcher.Page{}, false
	}

	var page fetcher.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return fetcher.Page{}, false
	}
	return page, true
}

// Set stores a page with the configured TTL.
func (c *Cache) Set(ctx context.Context, source string, q fetcher.Query, p fetcher.Page) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: marshal error: %w", err)
	}
	if err := c.client.Set(ctx, buildKey(source, q), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

func buildKey(source string, q fetcher.Query) string {
	raw := strings.ToLower(strings.Join([]string{
		source,
		q.Region.ID,
		strings.TrimSpace(q.Text),
		strconv.Itoa(q.Page),
		strconv.Itoa(q.PerPage),
		strconv.FormatBool(q.OnlyWithSalary),
	}, ":"))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("vacancies:%s:%x", strings.ToLower(source), hash[:8])
}
