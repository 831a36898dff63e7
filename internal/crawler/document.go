package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DocumentView is the read-only view of a parsed page that the extractors work against
type DocumentView interface {
	// SelectFirst returns the text of the first node matching selector.
	// ok is false when nothing matches.
	SelectFirst(selector string) (text string, ok bool)

	// SelectAll returns the text of every node matching selector, in document order
	SelectAll(selector string) []string

	// SelectAttrs returns attr of every matching node that carries it, in document order
	SelectAttrs(selector, attr string) []string
}

// goqueryDocument implements DocumentView on top of goquery
type goqueryDocument struct {
	doc *goquery.Document
}

// NewDocument parses markup into a DocumentView
func NewDocument(markup string) (DocumentView, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return &goqueryDocument{doc: doc}, nil
}

func (d *goqueryDocument) SelectFirst(selector string) (string, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return nodeText(sel.Get(0)), true
}

func (d *goqueryDocument) SelectAll(selector string) []string {
	var texts []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, nodeText(s.Get(0)))
	})
	return texts
}

func (d *goqueryDocument) SelectAttrs(selector, attr string) []string {
	var values []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if value, exists := s.Attr(attr); exists {
			values = append(values, value)
		}
	})
	return values
}

// nodeText joins the trimmed text nodes under n with single spaces.
// Script and style contents are skipped.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
