package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from an API snippet. hh.ru wraps query matches in
// <highlighttext> tags and occasionally returns entity-encoded text.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpace(fragment)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
