package fetcher

import (
	"context"
	"log/slog"
)

// PageCache stores fetched pages keyed by query.
type PageCache interface {
	Get(ctx context.Context, source string, q Query) (Page, bool)
	Set(ctx context.Context, source string, q Query, p Page) error
}

// Cached serves pages from a PageCache before falling through to the wrapped
// fetcher. Cache failures never fail a fetch; only successful pages are stored.
type Cached struct {
	next           Fetcher
	cache          PageCache
	defaultPerPage int
}

func NewCached(next Fetcher, cache PageCache, defaultPerPage int) *Cached {
	return &Cached{next: next, cache: cache, defaultPerPage: defaultPerPage}
}

func (c *Cached) Name() string {
	return c.next.Name()
}

func (c *Cached) FetchPage(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	q = q.Normalize(c.defaultPerPage)

	if p, ok := c.cache.Get(ctx, c.next.Name(), q); ok {
		slog.Debug("page served from cache", "component", "fetcher", "area", q.Region.ID, "page", q.Page)
		return p, nil
	}

	p, err := c.next.FetchPage(ctx, q)
	if err != nil {
		return Page{}, err
	}

	if err := c.cache.Set(ctx, c.next.Name(), q, p); err != nil {
		slog.Warn("page cache write failed", "component", "fetcher", "err", err)
	}
	return p, nil
}
