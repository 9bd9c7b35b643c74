package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/salary"
)

// hh.ru publishes timestamps without the colon in the zone offset.
const hhTimeLayout = "2006-01-02T15:04:05-0700"

// HTTPGetter is the part of httpclient.Client the fetcher needs.
type HTTPGetter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// HH queries the hh.ru vacancy-search API.
type HH struct {
	client         HTTPGetter
	baseURL        string
	defaultPerPage int
}

// NewHH returns a fetcher for the API rooted at baseURL (e.g. https://api.hh.ru).
func NewHH(client HTTPGetter, baseURL string, defaultPerPage int) *HH {
	return &HH{
		client:         client,
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultPerPage: defaultPerPage,
	}
}

func (h *HH) Name() string {
	return "hh.ru"
}

func (h *HH) FetchPage(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	q = q.Normalize(h.defaultPerPage)

	resp, err := h.client.Get(ctx, h.searchURL(q))
	if err != nil {
		return Page{}, &FetchError{Source: h.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, &FetchError{
			Source:     h.Name(),
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}

	var raw hhResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Page{}, &FetchError{Source: h.Name(), Err: fmt.Errorf("decoding response: %w", err)}
	}

	vacancies := make([]model.Vacancy, 0, len(raw.Items))
	for _, item := range raw.Items {
		vacancies = append(vacancies, item.normalize())
	}

	return Page{
		Vacancies:  vacancies,
		Page:       q.Page,
		TotalPages: raw.Pages,
		Found:      raw.Found,
	}, nil
}

func (h *HH) searchURL(q Query) string {
	params := url.Values{}
	params.Set("area", q.Region.ID)
	params.Set("text", q.Text)
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("per_page", strconv.Itoa(q.PerPage))
	if q.OnlyWithSalary {
		params.Set("only_with_salary", "true")
	}
	return fmt.Sprintf("%s/vacancies?%s", h.baseURL, params.Encode())
}

// hhResponse mirrors the top-level /vacancies JSON response.
type hhResponse struct {
	Items []hhVacancy `json:"items"`
	Found int         `json:"found"`
	Pages int         `json:"pages"`
}

// hhVacancy mirrors a single search item. Every nested object may be null.
type hhVacancy struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Employer     *hhEmployer `json:"employer"`
	Salary       *hhSalary   `json:"salary"`
	Area         *hhNamed    `json:"area"`
	Experience   *hhNamed    `json:"experience"`
	Snippet      *hhSnippet  `json:"snippet"`
	PublishedAt  string      `json:"published_at"`
	AlternateURL string      `json:"alternate_url"`
}

type hhEmployer struct {
	Name     string            `json:"name"`
	LogoURLs map[string]string `json:"logo_urls"`
}

type hhSalary struct {
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
	Currency string   `json:"currency"`
}

type hhNamed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type hhSnippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

func (v hhVacancy) normalize() model.Vacancy {
	out := model.Vacancy{
		ID:              v.ID,
		Source:          model.SourceHH,
		Title:           strings.TrimSpace(v.Name),
		EmployerName:    model.EmployerNotSpecified,
		Area:            model.AreaNotSpecified,
		ExperienceLabel: model.ExperienceNotSpecified,
		SourceURL:       v.AlternateURL,
		IsLocal:         false,
	}

	if v.Employer != nil {
		out.EmployerName = model.OrPlaceholder(v.Employer.Name, model.EmployerNotSpecified)
		out.EmployerLogoURL = logoURL(v.Employer.LogoURLs)
	}
	if v.Area != nil {
		out.Area = model.OrPlaceholder(v.Area.Name, model.AreaNotSpecified)
	}
	if v.Experience != nil {
		out.ExperienceLabel = model.OrPlaceholder(v.Experience.Name, model.ExperienceNotSpecified)
	}
	if v.Salary != nil {
		out.SalaryRaw = model.SalaryRange{
			From:     wholeUnits(v.Salary.From),
			To:       wholeUnits(v.Salary.To),
			Currency: v.Salary.Currency,
		}
	}
	out.SalaryDisplay = salary.FormatRange(out.SalaryRaw)

	if v.Snippet != nil {
		out.Description = joinNonEmpty(PlainText(v.Snippet.Requirement), PlainText(v.Snippet.Responsibility))
	}
	if t, ok := parsePublished(v.PublishedAt); ok {
		out.PublishedAt = &t
	}
	return out
}

func logoURL(urls map[string]string) string {
	if u := urls["90"]; u != "" {
		return u
	}
	return urls["original"]
}

func wholeUnits(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func parsePublished(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{hhTimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
