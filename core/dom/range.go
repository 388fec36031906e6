package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Range is a span of document text: a start text node with a byte
// offset into its data, and an end text node with an exclusive byte
// offset. Start and end may be the same node. Offsets always fall on
// UTF-8 boundaries.
type Range struct {
	Start    *html.Node
	StartOff int
	End      *html.Node
	EndOff   int
}

// Text returns the text covered by the range, concatenated across
// nodes in document order.
func (r *Range) Text() string {
	if r.Start == r.End {
		return r.Start.Data[r.StartOff:r.EndOff]
	}
	var b strings.Builder
	b.WriteString(r.Start.Data[r.StartOff:])
	for _, n := range nodesBetween(r.Start, r.End) {
		b.WriteString(n.Data)
	}
	b.WriteString(r.End.Data[:r.EndOff])
	return b.String()
}

// TextNodes returns the text nodes the range touches, in document
// order, boundary nodes included.
func (r *Range) TextNodes() []*html.Node {
	if r.Start == r.End {
		return []*html.Node{r.Start}
	}
	nodes := []*html.Node{r.Start}
	nodes = append(nodes, nodesBetween(r.Start, r.End)...)
	return append(nodes, r.End)
}

// Shrink trims lead bytes off the front of the range's text and trail
// bytes off the back, moving the boundaries across text nodes as
// needed. The trims must leave a non-empty span.
func (r *Range) Shrink(lead, trail int) {
	if lead <= 0 && trail <= 0 {
		return
	}

	type span struct {
		n    *html.Node
		s, e int
	}
	nodes := r.TextNodes()
	spans := make([]span, len(nodes))
	for i, n := range nodes {
		s, e := 0, len(n.Data)
		if i == 0 {
			s = r.StartOff
		}
		if i == len(nodes)-1 {
			e = r.EndOff
		}
		spans[i] = span{n, s, e}
	}

	for len(spans) > 0 && lead >= spans[0].e-spans[0].s {
		lead -= spans[0].e - spans[0].s
		spans = spans[1:]
	}
	if len(spans) == 0 {
		return
	}
	spans[0].s += lead

	for len(spans) > 0 && trail >= spans[len(spans)-1].e-spans[len(spans)-1].s {
		trail -= spans[len(spans)-1].e - spans[len(spans)-1].s
		spans = spans[:len(spans)-1]
	}
	if len(spans) == 0 {
		return
	}
	last := spans[len(spans)-1]
	last.e -= trail

	r.Start, r.StartOff = spans[0].n, spans[0].s
	r.End, r.EndOff = last.n, last.e
}

// SelectText resolves the nth occurrence (1-based) of text in the
// document's visible text into a Range. The match may span multiple
// text nodes and element boundaries.
func (d *Document) SelectText(text string, occurrence int) (*Range, error) {
	if text == "" {
		return nil, fmt.Errorf("empty selection text")
	}
	if occurrence < 1 {
		occurrence = 1
	}

	nodes := d.TextNodes()
	var full strings.Builder
	starts := make([]int, len(nodes)) // byte offset of each node's data in full
	for i, n := range nodes {
		starts[i] = full.Len()
		full.WriteString(n.Data)
	}
	body := full.String()

	pos := -1
	from := 0
	for i := 0; i < occurrence; i++ {
		idx := strings.Index(body[from:], text)
		if idx < 0 {
			return nil, fmt.Errorf("occurrence %d of %q not found in document", occurrence, text)
		}
		pos = from + idx
		from = pos + 1
	}
	end := pos + len(text)

	r := &Range{}
	for i, n := range nodes {
		nodeEnd := starts[i] + len(n.Data)
		if r.Start == nil && pos >= starts[i] && pos < nodeEnd {
			r.Start = n
			r.StartOff = pos - starts[i]
		}
		if end > starts[i] && end <= nodeEnd {
			r.End = n
			r.EndOff = end - starts[i]
			break
		}
	}
	if r.Start == nil || r.End == nil {
		return nil, fmt.Errorf("could not map selection %q to document nodes", text)
	}
	return r, nil
}

// RangeIn locates text as a substring of a single text node's data and
// returns the enclosing range. Used by the restoration strategies,
// which match per-leaf.
func RangeIn(n *html.Node, start, length int) *Range {
	return &Range{Start: n, StartOff: start, End: n, EndOff: start + length}
}

// nodesBetween returns the visible text nodes strictly between start
// and end in document order. Empty when the nodes are adjacent in the
// walk or when end precedes start.
func nodesBetween(start, end *html.Node) []*html.Node {
	root := start
	for root.Parent != nil {
		root = root.Parent
	}
	var between []*html.Node
	seenStart := false
	for _, n := range TextNodesIn(root) {
		switch n {
		case start:
			seenStart = true
		case end:
			if seenStart {
				return between
			}
			return nil
		default:
			if seenStart {
				between = append(between, n)
			}
		}
	}
	return nil
}

// LowestCommonAncestor returns the closest node containing both a and
// b, or nil when they belong to different trees.
func LowestCommonAncestor(a, b *html.Node) *html.Node {
	ancestors := map[*html.Node]bool{}
	for n := a; n != nil; n = n.Parent {
		ancestors[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if ancestors[n] {
			return n
		}
	}
	return nil
}
