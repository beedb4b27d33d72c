package event

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText strips HTML remnants that collectors sometimes leave in scraped
// fields and collapses whitespace. Plain text passes through unchanged apart
// from whitespace.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			// Block elements would otherwise glue adjacent words together
			doc.Find("br, p, div, li").Each(func(i int, sel *goquery.Selection) {
				sel.AppendHtml(" ")
			})
			s = doc.Text()
		}
	} else if strings.Contains(s, "&") {
		s = html.UnescapeString(s)
	}
	// Some feeds double-escape line breaks, leaving a literal backslash-n
	s = strings.ReplaceAll(s, `\n`, " ")
	return strings.Join(strings.Fields(s), " ")
}
