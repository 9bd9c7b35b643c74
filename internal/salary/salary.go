// Package salary renders salary ranges for display.
package salary

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// NotSpecified is returned when neither bound is known.
const NotSpecified = "Зарплата не указана"

var symbols = map[string]string{
	"RUR": "₽",
	"RUB": "₽",
	"USD": "$",
	"EUR": "€",
}

// Format renders a salary range. Bounds are whole currency units and are
// printed with Russian thousands grouping, without rounding.
func Format(from, to *int, currency string) string {
	var b strings.Builder
	switch {
	case from == nil && to == nil:
		return NotSpecified
	case to == nil:
		b.WriteString("от ")
		b.WriteString(number(*from))
	case from == nil:
		b.WriteString("до ")
		b.WriteString(number(*to))
	default:
		b.WriteString(number(*from))
		b.WriteString(" – ")
		b.WriteString(number(*to))
	}

	if sym := Symbol(currency); sym != "" {
		b.WriteString(" ")
		b.WriteString(sym)
	}
	return b.String()
}

// FormatRange is Format for a model.SalaryRange.
func FormatRange(r model.SalaryRange) string {
	return Format(r.From, r.To, r.Currency)
}

// Symbol maps an ISO-ish currency code to its display symbol. Unknown codes
// are returned uppercased.
func Symbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if sym, ok := symbols[code]; ok {
		return sym
	}
	return code
}

// GroupSeparator separates thousands in rendered amounts. It is a no-break
// space so an amount never wraps across lines.
const GroupSeparator = "\u00a0"

func number(n int) string {
	s := message.NewPrinter(language.Russian).Sprintf("%d", n)
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '\u00a0'
	}, s)
}
