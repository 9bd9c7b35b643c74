package model

import (
	"strings"
	"time"
)

// Source identifies where a vacancy came from.
type Source string

const (
	SourceHH     Source = "hh"     // external vacancy-search API
	SourceLocal  Source = "local"  // postings created through this application
	SourceStatic Source = "static" // built-in demo board
)

// Placeholders used when the upstream record leaves a display field empty.
const (
	EmployerNotSpecified   = "Компания не указана"
	AreaNotSpecified       = "Не указано"
	ExperienceNotSpecified = "Опыт не указан"
	LocalEmployerLabel     = "Локальная вакансия"
)

// SalaryRange is the raw salary as reported by the source. Any field may be absent.
type SalaryRange struct {
	From     *int   `json:"from,omitempty"`
	To       *int   `json:"to,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// IsZero reports whether neither bound is known.
func (s SalaryRange) IsZero() bool {
	return s.From == nil && s.To == nil
}

// Vacancy is one normalized job posting, regardless of originating source.
// ID is unique within a Source only; use Key when a cross-source identity is needed.
type Vacancy struct {
	ID              string      `json:"id"`
	Source          Source      `json:"source"`
	Title           string      `json:"title"`
	EmployerName    string      `json:"employerName"`
	Description     string      `json:"description,omitempty"`
	SalaryDisplay   string      `json:"salaryDisplay"`
	SalaryRaw       SalaryRange `json:"salaryRaw"`
	Area            string      `json:"area"`
	ExperienceLabel string      `json:"experienceLabel"`
	PublishedAt     *time.Time  `json:"publishedAt,omitempty"`
	SourceURL       string      `json:"sourceUrl,omitempty"`
	IsLocal         bool        `json:"isLocal"`
	EmployerLogoURL string      `json:"employerLogoUrl,omitempty"`
}

// Key returns the (source, id) identity used for list rendering and deduplication.
func (v Vacancy) Key() string {
	return string(v.Source) + ":" + v.ID
}

// SearchText returns the fields free-text search runs against, lowercased.
func (v Vacancy) SearchText() string {
	return strings.ToLower(v.Title + "\n" + v.EmployerName + "\n" + v.Description)
}

// OrPlaceholder returns s trimmed, or placeholder when s is blank.
func OrPlaceholder(s, placeholder string) string {
	if s = strings.TrimSpace(s); s == "" {
		return placeholder
	}
	return s
}
