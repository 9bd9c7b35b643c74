package filter

import "github.com/rsilvagit/go-vacancies/internal/model"

// Merge combines local postings with fetched vacancies, drops repeated
// (source, id) pairs and filters the result by query. Local vacancies come
// first; each group keeps its source order.
// Merge is pure: the same inputs always produce the same output, and an empty
// result is returned as a non-nil empty slice.
func Merge(local, fetched []model.Vacancy, query string) []model.Vacancy {
	q := normalizeQuery(query)
	out := make([]model.Vacancy, 0, len(local)+len(fetched))
	for _, group := range [][]model.Vacancy{local, fetched} {
		for _, v := range group {
			if q == "" || Match(v, q) {
				out = append(out, v)
			}
		}
	}
	return Dedupe(out)
}

// Dedupe drops repeated (source, id) pairs, keeping the first occurrence.
func Dedupe(vacancies []model.Vacancy) []model.Vacancy {
	seen := make(map[string]struct{}, len(vacancies))
	out := make([]model.Vacancy, 0, len(vacancies))
	for _, v := range vacancies {
		k := v.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
