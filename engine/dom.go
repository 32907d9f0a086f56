package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed static HTML page. It backs the HTTP renderer and
// anything else that needs Element handles over markup without a browser.
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses HTML from r.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse html: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Has reports whether any element matches selector.
func (d *Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// QueryAll returns every element matching selector, in document order.
func (d *Document) QueryAll(selector string) []Element {
	sel := d.doc.Find(selector)
	out := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, domElement{sel: s})
	})
	return out
}

// Title returns the document title, used for diagnostics.
func (d *Document) Title() string {
	return d.doc.Find("title").First().Text()
}

type domElement struct {
	sel *goquery.Selection
}

func (e domElement) QueryOne(_ context.Context, selector string) (Element, bool, error) {
	child := e.sel.Find(selector).First()
	if child.Length() == 0 {
		return nil, false, nil
	}
	return domElement{sel: child}, true, nil
}

// Text matches DOM textContent: every descendant text node, untrimmed.
func (e domElement) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

func (e domElement) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}
