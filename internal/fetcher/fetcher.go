package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// MaxPerPage is the external API's page-size ceiling.
const MaxPerPage = 100

var (
	// ErrFetchFailed matches every *FetchError.
	ErrFetchFailed = errors.New("vacancy fetch failed")
	// ErrInvalidQuery is returned before any request is made.
	ErrInvalidQuery = errors.New("invalid vacancy query")
)

// Fetcher defines the contract every vacancy source must satisfy.
type Fetcher interface {
	// Name returns a human-readable identifier for this source.
	Name() string

	// FetchPage issues one page request and returns normalized vacancies.
	// It does not retain or mutate any shared state.
	FetchPage(ctx context.Context, q Query) (Page, error)
}

// Query selects one page of search results.
type Query struct {
	Region         model.Region
	Text           string
	Page           int // 0-based
	PerPage        int
	OnlyWithSalary bool
}

// Validate checks the query before any network call.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Region.ID) == "" {
		return fmt.Errorf("%w: region id is empty", ErrInvalidQuery)
	}
	if q.Page < 0 {
		return fmt.Errorf("%w: page %d is negative", ErrInvalidQuery, q.Page)
	}
	return nil
}

// Normalize fills the page size: non-positive sizes fall back to def,
// sizes above MaxPerPage are clamped.
func (q Query) Normalize(def int) Query {
	if q.PerPage <= 0 {
		q.PerPage = def
	}
	if q.PerPage <= 0 {
		q.PerPage = 20
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	q.Text = strings.TrimSpace(q.Text)
	return q
}

// Page is one page of normalized results. An empty page is a valid result.
type Page struct {
	Vacancies  []model.Vacancy `json:"vacancies"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Found      int             `json:"found"`
}

// Empty reports whether the page carries no vacancies.
func (p Page) Empty() bool {
	return len(p.Vacancies) == 0
}

// HasMore reports whether the server has pages after this one.
func (p Page) HasMore() bool {
	return p.TotalPages > p.Page+1
}

// FetchError reports a failed request. StatusCode is zero when no response
// was received.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch failed with status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }
