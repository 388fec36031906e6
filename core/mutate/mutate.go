// Package mutate performs the DOM surgery for highlights: wrapping a
// located range in a marker element and unwrapping a marker back into
// its parent. Wrapping tries an ordered cascade of strategies, each an
// explicit attempt returning an error rather than panicking:
//
//  1. simple wrap   — the range lies inside a single text node
//  2. extract-and-wrap — the range covers a whole run of siblings
//  3. clone-delete-insert — last resort, moves covered text only
//
// A range whose interior already touches another marker is rejected
// outright: overlapping highlights are disallowed, and a partial or
// nested wrap must never happen.
package mutate

import (
	"fmt"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Mutator wraps and unwraps highlight markers.
type Mutator struct{}

// New creates a Mutator.
func New() *Mutator {
	return &Mutator{}
}

// NewMarker builds the live highlight element for an anchor.
func NewMarker(a core.Anchor) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Mark,
		Data:     dom.MarkerTag,
		Attr: []html.Attribute{
			{Key: "class", Val: fmt.Sprintf("%s %s-%s", dom.MarkerClass, dom.MarkerClass, a.Color)},
			{Key: dom.AttrID, Val: a.ID},
			{Key: dom.AttrColor, Val: a.Color},
		},
	}
}

// Wrap surrounds the range with a marker element for the anchor and
// returns the inserted marker. The range is checked for marker overlap
// first; core.ErrOverlappingHighlight means the caller must surface a
// "cannot highlight across existing highlights" condition, not retry.
// core.ErrWrapFailed means every strategy rejected the range.
func (m *Mutator) Wrap(rng *dom.Range, a core.Anchor) (*html.Node, error) {
	if err := CheckOverlap(rng); err != nil {
		return nil, err
	}

	splitBoundaries(rng)
	marker := NewMarker(a)

	var firstErr error
	for _, wrap := range []func(*dom.Range, *html.Node) error{
		simpleWrap,
		extractWrap,
		cloneWrap,
	} {
		err := wrap(rng, marker)
		if err == nil {
			return marker, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("%w: %v", core.ErrWrapFailed, firstErr)
}

// Unwrap moves the marker's children back into its parent at the
// marker's position, preserving order, and removes the marker. The
// document's text content is exactly what it was before the wrap.
func (m *Mutator) Unwrap(marker *html.Node) error {
	if marker == nil || marker.Parent == nil {
		return fmt.Errorf("marker is not attached to a document")
	}
	parent := marker.Parent
	for marker.FirstChild != nil {
		child := marker.FirstChild
		marker.RemoveChild(child)
		parent.InsertBefore(child, marker)
	}
	parent.RemoveChild(marker)
	return nil
}

// CheckOverlap rejects a range whose interior touches an existing
// highlight marker, either because the range sits inside one or
// because one sits inside the range.
func CheckOverlap(rng *dom.Range) error {
	for _, n := range rng.TextNodes() {
		if dom.InsideMarker(n) {
			return core.ErrOverlappingHighlight
		}
	}
	return nil
}

// splitBoundaries splits the boundary text nodes so that the range
// starts and ends exactly on node boundaries. After the call,
// StartOff is 0 and EndOff is len(End.Data).
func splitBoundaries(rng *dom.Range) {
	if rng.StartOff > 0 {
		covered := splitText(rng.Start, rng.StartOff)
		if rng.End == rng.Start {
			rng.End = covered
			rng.EndOff -= rng.StartOff
		}
		rng.Start = covered
		rng.StartOff = 0
	}
	if rng.EndOff < len(rng.End.Data) {
		splitText(rng.End, rng.EndOff)
	}
	rng.EndOff = len(rng.End.Data)
}

// splitText splits a text node at the given byte offset and returns
// the new node holding the tail.
func splitText(n *html.Node, off int) *html.Node {
	tail := &html.Node{Type: html.TextNode, Data: n.Data[off:]}
	n.Data = n.Data[:off]
	if n.Parent != nil {
		n.Parent.InsertBefore(tail, n.NextSibling)
	}
	return tail
}

// simpleWrap handles a range confined to a single text node: the node
// is lifted into the marker, and the marker takes its place.
func simpleWrap(rng *dom.Range, marker *html.Node) error {
	if rng.Start != rng.End {
		return fmt.Errorf("range spans multiple nodes")
	}
	parent := rng.Start.Parent
	if parent == nil {
		return fmt.Errorf("range node has no parent")
	}
	parent.InsertBefore(marker, rng.Start)
	parent.RemoveChild(rng.Start)
	marker.AppendChild(rng.Start)
	return nil
}

// extractWrap handles a range spanning multiple nodes whose covered
// content forms a whole run of siblings under the boundaries' lowest
// common ancestor. The run is extracted into the marker and the marker
// inserted at the run's old position.
func extractWrap(rng *dom.Range, marker *html.Node) error {
	lca := dom.LowestCommonAncestor(rng.Start, rng.End)
	if lca == nil {
		return fmt.Errorf("range boundaries share no ancestor")
	}
	first := childOnPath(lca, rng.Start)
	last := childOnPath(lca, rng.End)
	if first == nil || last == nil {
		return fmt.Errorf("range boundaries are not under the common ancestor")
	}

	// The run [first..last] may only be moved wholesale if the range
	// covers it exactly: the start node must be the first text in the
	// first subtree and the end node the last text in the last.
	if !isFirstTextIn(first, rng.Start) || !isLastTextIn(last, rng.End) {
		return fmt.Errorf("range partially covers an element boundary")
	}

	lca.InsertBefore(marker, first)
	for n := first; ; {
		next := n.NextSibling
		lca.RemoveChild(n)
		marker.AppendChild(n)
		if n == last {
			break
		}
		n = next
	}
	return nil
}

// cloneWrap is the last resort: the covered text nodes are cloned into
// the marker in order, the originals deleted, and the marker inserted
// at the range's start position. Inline structure inside the range is
// flattened to text; the document's text content is preserved.
func cloneWrap(rng *dom.Range, marker *html.Node) error {
	parent := rng.Start.Parent
	if parent == nil {
		return fmt.Errorf("range start has no parent")
	}
	covered := rng.TextNodes()

	parent.InsertBefore(marker, rng.Start)
	for _, n := range covered {
		marker.AppendChild(&html.Node{Type: html.TextNode, Data: n.Data})
	}
	for _, n := range covered {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return nil
}

// childOnPath returns the child of parent on the ancestor path of n,
// or n itself if it is a direct child. Nil when n is not under parent.
func childOnPath(parent, n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Parent == parent {
			return n
		}
	}
	return nil
}

// isFirstTextIn reports whether t is the first text node in root's
// subtree (or root itself).
func isFirstTextIn(root, t *html.Node) bool {
	nodes := dom.TextNodesIn(root)
	return len(nodes) > 0 && nodes[0] == t
}

// isLastTextIn reports whether t is the last text node in root's
// subtree (or root itself).
func isLastTextIn(root, t *html.Node) bool {
	nodes := dom.TextNodesIn(root)
	return len(nodes) > 0 && nodes[len(nodes)-1] == t
}
