package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// NoResults is written when a search produced nothing.
const NoResults = "Вакансии не найдены."

// ResultWriter defines how search results are presented or delivered.
type ResultWriter interface {
	WriteVacancies(ctx context.Context, vacancies []model.Vacancy) error
}

// ConsolePrinter writes vacancies as an aligned table.
type ConsolePrinter struct {
	out io.Writer
}

func NewConsolePrinter() *ConsolePrinter {
	return &ConsolePrinter{out: os.Stdout}
}

// NewConsolePrinterTo writes to out instead of stdout.
func NewConsolePrinterTo(out io.Writer) *ConsolePrinter {
	return &ConsolePrinter{out: out}
}

func (cp *ConsolePrinter) WriteVacancies(_ context.Context, vacancies []model.Vacancy) error {
	if len(vacancies) == 0 {
		_, err := fmt.Fprintln(cp.out, NoResults)
		return err
	}

	w := tabwriter.NewWriter(cp.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ИСТОЧНИК\tВАКАНСИЯ\tРАБОТОДАТЕЛЬ\tЗАРПЛАТА\tРЕГИОН\tССЫЛКА")
	for _, v := range vacancies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sourceLabel(v), cell(v.Title), cell(v.EmployerName), v.SalaryDisplay, cell(v.Area), v.SourceURL)
	}
	return w.Flush()
}

func sourceLabel(v model.Vacancy) string {
	if v.IsLocal {
		return "локальная"
	}
	return string(v.Source)
}

// cell keeps a table cell on one line.
func cell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// chunk groups entries into messages no longer than limit bytes, the first
// one starting with header.
func chunk(header string, entries []string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
	)
	current.WriteString(header)
	for _, e := range entries {
		if current.Len() > 0 && current.Len()+len(e) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(e)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
