package filter

import (
	"strings"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// Options holds all filter criteria. Empty fields mean "no filter".
type Options struct {
	Query string // substring of title, employer or description
	Area  string // comma-separated area names, any may match
}

// Apply filters a slice of vacancies, returning only those that match all
// criteria. Order is preserved and the input is never modified.
func Apply(vacancies []model.Vacancy, opts Options) []model.Vacancy {
	q := normalizeQuery(opts.Query)
	out := make([]model.Vacancy, 0, len(vacancies))
	for _, v := range vacancies {
		if q != "" && !strings.Contains(v.SearchText(), q) {
			continue
		}
		if opts.Area != "" && !containsAny(strings.ToLower(v.Area), opts.Area) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Match reports whether v matches the free-text query. An empty query matches
// everything.
func Match(v model.Vacancy, query string) bool {
	q := normalizeQuery(query)
	return q == "" || strings.Contains(v.SearchText(), q)
}

// ByArea keeps vacancies whose area equals city, ignoring case and
// surrounding whitespace.
func ByArea(vacancies []model.Vacancy, city string) []model.Vacancy {
	city = strings.TrimSpace(city)
	out := make([]model.Vacancy, 0, len(vacancies))
	for _, v := range vacancies {
		if strings.EqualFold(strings.TrimSpace(v.Area), city) {
			out = append(out, v)
		}
	}
	return out
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// containsAny checks if text contains any of the comma-separated terms.
func containsAny(text, terms string) bool {
	for _, term := range strings.Split(terms, ",") {
		term = strings.TrimSpace(strings.ToLower(term))
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}
