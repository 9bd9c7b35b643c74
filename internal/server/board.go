package server

import (
	"strconv"

	"github.com/rsilvagit/go-vacancies/internal/filter"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/salary"
)

// DefaultBoardPerPage is the board's result limit when none is requested.
const DefaultBoardPerPage = 50

// Board is a fixed in-memory list of vacancies served under /api/vacancies.
// It answers the same request shape as the live search over a smaller dataset.
type Board struct {
	vacancies []model.Vacancy
}

func NewBoard(vacancies []model.Vacancy) *Board {
	return &Board{vacancies: append([]model.Vacancy(nil), vacancies...)}
}

// Search filters by free text and truncates to perPage.
func (b *Board) Search(query string, perPage int) []model.Vacancy {
	return limit(filter.Merge(nil, b.vacancies, query), perPage)
}

// Cities lists the distinct areas in first-seen order.
func (b *Board) Cities() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, v := range b.vacancies {
		if _, ok := seen[v.Area]; ok {
			continue
		}
		seen[v.Area] = struct{}{}
		out = append(out, v.Area)
	}
	return out
}

// ByCity returns vacancies in city, truncated to perPage.
func (b *Board) ByCity(city string, perPage int) []model.Vacancy {
	return limit(filter.ByArea(b.vacancies, city), perPage)
}

func limit(vs []model.Vacancy, perPage int) []model.Vacancy {
	if perPage <= 0 {
		perPage = DefaultBoardPerPage
	}
	if len(vs) > perPage {
		vs = vs[:perPage]
	}
	return vs
}

// YakutiaBoard is the built-in demo dataset.
func YakutiaBoard() *Board {
	entry := func(id int, title, company string, from int, city, experience, description string) model.Vacancy {
		raw := model.SalaryRange{From: &from, Currency: "RUR"}
		return model.Vacancy{
			ID:              strconv.Itoa(id),
			Source:          model.SourceStatic,
			Title:           title,
			EmployerName:    company,
			Description:     description,
			SalaryRaw:       raw,
			SalaryDisplay:   salary.FormatRange(raw),
			Area:            city,
			ExperienceLabel: experience,
			IsLocal:         true,
		}
	}

	return NewBoard([]model.Vacancy{
		entry(1, "Разработчик React Native", "IT Компания Якутск", 100000, "Якутск", "1-3 года",
			"Разработка мобильных приложений для крупных проектов республики"),
		entry(2, "Backend разработчик (Node.js)", "Якутские Технологии", 120000, "Якутск", "3+ года",
			"Разработка серверной части для систем мониторинга"),
		entry(3, "Геолог", "Алроса", 140000, "Мирный", "2+ года",
			"Поиск и оценка месторождений алмазов"),
		entry(4, "Врач-терапевт", "Городская больница №1", 90000, "Нерюнгри", "5+ лет",
			"Амбулаторный прием пациентов в поликлинике"),
		entry(5, "Учитель английского языка", "Гимназия №2", 85000, "Ленск", "Без опыта",
			"Преподавание английского языка в средней школе"),
	})
}
