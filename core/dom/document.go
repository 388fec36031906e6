// Package dom wraps a parsed HTML document for the anchoring engine:
// text-node traversal in document order, marker element lookup, and
// resolution of text selections into live ranges.
package dom

import (
	"fmt"
	"io"
	"strings"

	jdom "github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Marker element shape. A live highlight is a <mark> carrying the
// anchor's id and color; the class is shared by every highlight so the
// walker can recognize one regardless of color.
const (
	MarkerTag   = "mark"
	MarkerClass = "pagemark"
	AttrID      = "data-highlight-id"
	AttrColor   = "data-color"
)

// skipTags are elements whose subtrees carry no user-visible text.
// Text inside them is never selectable and never matched against.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"head": true, "iframe": true, "svg": true, "template": true,
}

// Document is a parsed HTML page.
type Document struct {
	gq   *goquery.Document
	root *html.Node
}

// Parse reads and parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	gq, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	if len(gq.Nodes) == 0 {
		return nil, fmt.Errorf("parsed document has no root node")
	}
	return &Document{gq: gq, root: gq.Nodes[0]}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document's root node.
func (d *Document) Root() *html.Node { return d.root }

// Find runs a CSS selector query against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.gq.Find(selector)
}

// Title returns the page title, or "" if none.
func (d *Document) Title() string {
	return strings.TrimSpace(d.gq.Find("title").First().Text())
}

// HTML serializes the document, including any mutations made since
// parsing.
func (d *Document) HTML() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return b.String(), nil
}

// TextNodes returns the document's visible text nodes in document
// order. Text inside script/style and similar elements is excluded;
// text inside highlight markers is included (callers that must not
// match inside a marker filter with InsideMarker).
func (d *Document) TextNodes() []*html.Node {
	return TextNodesIn(d.root)
}

// Text returns the document's visible text content, text nodes
// concatenated in document order.
func (d *Document) Text() string {
	return TextOf(d.root)
}

// MarkerByID returns the live highlight element carrying the given
// anchor id, or nil if the document has none.
func (d *Document) MarkerByID(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsMarker(n) && jdom.GetAttributeOr(n, AttrID, "") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Markers returns every live highlight element in the document.
func (d *Document) Markers() []*html.Node {
	var markers []*html.Node
	walk(d.root, func(n *html.Node) bool {
		if IsMarker(n) {
			markers = append(markers, n)
		}
		return true
	})
	return markers
}

// IsMarker reports whether the node is a live highlight element.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.Data != MarkerTag {
		return false
	}
	for _, class := range strings.Fields(jdom.GetAttributeOr(n, "class", "")) {
		if class == MarkerClass {
			return true
		}
	}
	return false
}

// InsideMarker reports whether the node has a highlight marker among
// its ancestors. Strategies use this to skip already-restored spans and
// to prevent nesting one highlight inside another.
func InsideMarker(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsMarker(p) {
			return true
		}
	}
	return false
}

// TextNodesIn returns the visible text nodes under n in document order.
func TextNodesIn(n *html.Node) []*html.Node {
	var nodes []*html.Node
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			nodes = append(nodes, c)
		}
		return true
	})
	return nodes
}

// TextOf returns the visible text content of the subtree rooted at n.
func TextOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// walk visits every node of the subtree in document order, skipping the
// subtrees of invisible elements. Returning false from fn prunes the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if n.Type == html.ElementNode && skipTags[n.Data] {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
