package matching

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PlainText reduces an HTML position description to whitespace-normalized
// text. Input without markup is only normalized. If the markup cannot be
// parsed the raw input is normalized instead.
func PlainText(description string) string {
	if !strings.ContainsAny(description, "<&") {
		return collapseSpace(description)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return collapseSpace(description)
	}
	doc.Find("script, style, noscript").Remove()

	// Block elements would otherwise glue neighbouring words together.
	doc.Find("p, li, br, div, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(&html.Node{Type: html.TextNode, Data: " "})
	})

	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
