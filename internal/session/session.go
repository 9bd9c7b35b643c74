// Package session tracks one search over a region: the pages loaded so far,
// whether more exist, and which in-flight responses still belong to it.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/filter"
	"github.com/rsilvagit/go-vacancies/internal/model"
)

// State is the pagination state.
type State int

const (
	Idle        State = iota // no region selected, or the first page failed
	Loading                  // first page in flight
	Ready                    // results available
	LoadingMore              // next page in flight, previous results kept
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadingMore:
		return "loading-more"
	default:
		return "unknown"
	}
}

// Request is a page fetch tagged with the session it was issued for.
type Request struct {
	SessionID string
	Query     fetcher.Query
}

// First reports whether the request is for the first page of its session.
func (r Request) First() bool { return r.Query.Page == 0 }

// Result is the outcome of a Request.
type Result struct {
	Request Request
	Page    fetcher.Page
	Err     error
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State     State
	SessionID string
	Region    *model.Region
	QueryText string
	Page      int // last page loaded
	HasMore   bool
	Found     int
	Results   []model.Vacancy
	Err       error // last fetch failure, cleared on success or reset
}

// Merged combines the accumulated results with local postings and applies
// the session's query text.
func (s Snapshot) Merged(local []model.Vacancy) []model.Vacancy {
	return filter.Merge(local, s.Results, s.QueryText)
}

// Options configures a Controller.
type Options struct {
	PerPage        int
	OnlyWithSalary bool
}

// Controller is the pagination state machine. Methods that change the
// session return the Request to run; results are applied only while the
// session that issued them is still current.
type Controller struct {
	fetcher fetcher.Fetcher
	opts    Options
	newID   func() string

	mu        sync.Mutex
	state     State
	sessionID string
	region    *model.Region
	queryText string
	page      int
	hasMore   bool
	found     int
	results   []model.Vacancy
	seen      map[string]struct{}
	err       error
}

func NewController(f fetcher.Fetcher, opts Options) *Controller {
	return &Controller{
		fetcher: f,
		opts:    opts,
		newID:   uuid.NewString,
		state:   Idle,
		seen:    make(map[string]struct{}),
	}
}

// SelectRegion starts a new session for region with the current query text.
func (c *Controller) SelectRegion(region model.Region) Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := region
	c.region = &r
	return c.resetLocked()
}

// Search sets the query text. It starts a new session when a region is
// selected; otherwise the text is kept for the first SelectRegion.
func (c *Controller) Search(text string) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queryText = strings.TrimSpace(text)
	if c.region == nil {
		return Request{}, false
	}
	return c.resetLocked(), true
}

// Refresh restarts the current session from the first page.
func (c *Controller) Refresh() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.region == nil {
		return Request{}, false
	}
	return c.resetLocked(), true
}

// LoadMore requests the next page. It is accepted only in Ready with more
// pages available; otherwise it returns false and changes nothing.
func (c *Controller) LoadMore() (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready || !c.hasMore {
		return Request{}, false
	}
	c.state = LoadingMore
	return c.requestLocked(c.page + 1), true
}

// Fetch runs the request against the fetcher without touching state.
func (c *Controller) Fetch(ctx context.Context, req Request) Result {
	page, err := c.fetcher.FetchPage(ctx, req.Query)
	return Result{Request: req, Page: page, Err: err}
}

// Apply folds a result into the state. It returns false when the result is
// stale: issued by an earlier session, or not matching the page in flight.
func (c *Controller) Apply(res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Request.SessionID != c.sessionID {
		slog.Debug("discarding stale page", "component", "session",
			"session", res.Request.SessionID, "current", c.sessionID)
		return false
	}

	first := res.Request.First()
	switch {
	case first && c.state != Loading:
		return false
	case !first && (c.state != LoadingMore || res.Request.Query.Page != c.page+1):
		return false
	}

	if res.Err != nil {
		c.err = res.Err
		if first {
			c.state = Idle
		} else {
			c.state = Ready
		}
		return true
	}

	for _, v := range res.Page.Vacancies {
		k := v.Key()
		if _, dup := c.seen[k]; dup {
			continue
		}
		c.seen[k] = struct{}{}
		c.results = append(c.results, v)
	}
	c.page = res.Request.Query.Page
	c.hasMore = res.Page.TotalPages > c.page+1
	c.found = res.Page.Found
	c.err = nil
	c.state = Ready
	return true
}

// Do fetches and applies a request, reporting whether the result was applied.
func (c *Controller) Do(ctx context.Context, req Request) bool {
	return c.Apply(c.Fetch(ctx, req))
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state,
		SessionID: c.sessionID,
		QueryText: c.queryText,
		Page:      c.page,
		HasMore:   c.hasMore,
		Found:     c.found,
		Results:   append([]model.Vacancy(nil), c.results...),
		Err:       c.err,
	}
	if c.region != nil {
		r := *c.region
		s.Region = &r
	}
	return s
}

func (c *Controller) resetLocked() Request {
	c.sessionID = c.newID()
	c.state = Loading
	c.page = 0
	c.hasMore = true
	c.found = 0
	c.results = nil
	c.seen = make(map[string]struct{})
	c.err = nil
	return c.requestLocked(0)
}

func (c *Controller) requestLocked(page int) Request {
	return Request{
		SessionID: c.sessionID,
		Query: fetcher.Query{
			Region:         *c.region,
			Text:           c.queryText,
			Page:           page,
			PerPage:        c.opts.PerPage,
			OnlyWithSalary: c.opts.OnlyWithSalary,
		},
	}
}
