package restore

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/gaurav-prasanna/pagemark/core/normalize"
	"github.com/gaurav-prasanna/pagemark/core/similarity"
	"golang.org/x/net/html"
)

// Partial-match bounds, relative to the anchor text's rune length.
const (
	partialMinAbsolute = 20   // shortest text the strategy applies to
	partialMinShare    = 0.6  // accepted span must cover this share
	partialPrefixShare = 0.7  // search key is at most this share
	partialGrowthCap   = 1.3  // candidate may grow to at most this multiple
	contextEdgeWindow  = 25   // runes compared per context edge
)

// exactMatch finds the first visible text leaf containing the anchor's
// text as an exact substring. Leaves inside existing markers are
// skipped so an already-restored span is never matched again.
func (e *Engine) exactMatch(doc *dom.Document, a core.Anchor) *dom.Range {
	e.Calls.Exact++
	for _, n := range doc.TextNodes() {
		if dom.InsideMarker(n) {
			continue
		}
		if idx := strings.Index(n.Data, a.Text); idx >= 0 {
			return dom.RangeIn(n, idx, len(a.Text))
		}
	}
	return nil
}

// contextMatch uses the DOM neighborhood recorded at creation time.
// Candidate containers are resolved by id, then class, then tag name;
// a candidate is accepted only if its text contains the anchor's text
// and the recorded before/after windows loosely match the text around
// the occurrence.
func (e *Engine) contextMatch(doc *dom.Document, a core.Anchor) *dom.Range {
	e.Calls.Context++
	ctx := a.Context
	if ctx == nil {
		return nil
	}

	sel := candidateSelector(ctx)
	for _, cand := range doc.Find(sel).Nodes {
		full := dom.TextOf(cand)
		pos := strings.Index(full, a.Text)
		if pos < 0 {
			continue
		}
		if !looseEdge(ctx.Before, full[:pos], true) {
			continue
		}
		if !looseEdge(ctx.After, full[pos+len(a.Text):], false) {
			continue
		}
		if rng := firstContainingLeaf(cand, a.Text); rng != nil {
			return rng
		}
	}
	return nil
}

// fuzzyMatch compares normalized forms: if a leaf's folded text
// contains the anchor's folded text, the raw span is recovered from
// the first and last word of the original text. Spans that balloon
// past twice the original length are rejected as over-matches.
func (e *Engine) fuzzyMatch(doc *dom.Document, a core.Anchor) *dom.Range {
	e.Calls.Fuzzy++
	folded := normalize.Text(a.Text)
	if folded == "" {
		return nil
	}
	words := strings.Fields(a.Text)
	if len(words) == 0 {
		return nil
	}
	first := words[0]
	last := words[len(words)-1]
	maxSpan := 2 * utf8.RuneCountInString(a.Text)

	for _, n := range doc.TextNodes() {
		if dom.InsideMarker(n) {
			continue
		}
		if !strings.Contains(normalize.Text(n.Data), folded) {
			continue
		}
		start, _ := foldIndex(n.Data, first)
		if start < 0 {
			continue
		}
		_, end := foldLastIndex(n.Data, last)
		if end <= start {
			continue
		}
		if utf8.RuneCountInString(n.Data[start:end]) > maxSpan {
			continue
		}
		return dom.RangeIn(n, start, end-start)
	}
	return nil
}

// partialMatch restores long anchors whose tail has changed: a prefix
// of the anchor text is used as a search key, and the candidate end is
// extended while the similarity against the full original text stays
// at or above the threshold, bounded both in growth and in minimum
// accepted length.
func (e *Engine) partialMatch(doc *dom.Document, a core.Anchor) *dom.Range {
	e.Calls.Partial++
	runes := []rune(a.Text)
	total := len(runes)
	if total < partialMinAbsolute {
		return nil
	}

	minLen := int(partialMinShare * float64(total))
	if minLen < partialMinAbsolute {
		minLen = partialMinAbsolute
	}
	prefixLen := int(partialPrefixShare * float64(total))
	if prefixLen > partialMinAbsolute {
		prefixLen = partialMinAbsolute
	}
	prefix := string(runes[:prefixLen])
	growthCap := int(partialGrowthCap * float64(total))

	for _, n := range doc.TextNodes() {
		if dom.InsideMarker(n) {
			continue
		}
		idx := strings.Index(n.Data, prefix)
		if idx < 0 {
			continue
		}

		cand := []rune(n.Data[idx:])
		maxEnd := len(cand)
		if maxEnd > growthCap {
			maxEnd = growthCap
		}

		bestEnd, bestScore := 0, 0.0
		for end := prefixLen; end <= maxEnd; end++ {
			score := similarity.Score(a.Text, string(cand[:end]))
			if score > bestScore {
				bestScore, bestEnd = score, end
			} else if bestScore >= e.threshold && score < e.threshold {
				// Past the peak and under the threshold: the window
				// is only drifting away from the anchor now.
				break
			}
		}
		if bestScore < e.threshold || bestEnd < minLen {
			continue
		}
		return dom.RangeIn(n, idx, len(string(cand[:bestEnd])))
	}
	return nil
}

// candidateSelector builds the container query for a context record:
// id lookup first, then class, then tag name (default "p").
func candidateSelector(ctx *core.Context) string {
	if ctx.ParentID != "" {
		return fmt.Sprintf("[id=%q]", ctx.ParentID)
	}
	if classes := strings.Fields(ctx.ParentClass); len(classes) > 0 {
		return fmt.Sprintf("[class~=%q]", classes[0])
	}
	if ctx.ParentTag != "" {
		return ctx.ParentTag
	}
	return "p"
}

// looseEdge checks a recorded context window against the text actually
// surrounding a candidate occurrence. Comparison happens on folded
// text over a bounded window, and containment either way counts as a
// match: surrounding text shifts more often than it rewrites.
func looseEdge(recorded, actual string, trailing bool) bool {
	recorded = normalize.Text(recorded)
	actual = normalize.Text(actual)
	if recorded == "" || actual == "" {
		return true
	}
	if trailing {
		recorded = tail(recorded, contextEdgeWindow)
		actual = tail(actual, contextEdgeWindow)
	} else {
		recorded = head(recorded, contextEdgeWindow)
		actual = head(actual, contextEdgeWindow)
	}
	if len(recorded) <= len(actual) {
		return strings.Contains(actual, recorded)
	}
	return strings.Contains(recorded, actual)
}

// firstContainingLeaf returns the range over the first text leaf under
// root that contains text, skipping leaves inside markers.
func firstContainingLeaf(root *html.Node, text string) *dom.Range {
	for _, n := range dom.TextNodesIn(root) {
		if dom.InsideMarker(n) {
			continue
		}
		if idx := strings.Index(n.Data, text); idx >= 0 {
			return dom.RangeIn(n, idx, len(text))
		}
	}
	return nil
}

// foldIndex returns the byte offsets in s of the first occurrence of
// sub under per-rune case folding. Offsets always index s itself, so
// they stay valid even where lowercasing changes a rune's UTF-8 width.
func foldIndex(s, sub string) (start, end int) {
	target := []rune(strings.ToLower(sub))
	if len(target) == 0 {
		return -1, -1
	}
	for i := range s {
		if end := foldMatchAt(s, i, target); end >= 0 {
			return i, end
		}
	}
	return -1, -1
}

// foldLastIndex is foldIndex for the last occurrence.
func foldLastIndex(s, sub string) (start, end int) {
	target := []rune(strings.ToLower(sub))
	if len(target) == 0 {
		return -1, -1
	}
	start, end = -1, -1
	for i := range s {
		if e := foldMatchAt(s, i, target); e >= 0 {
			start, end = i, e
		}
	}
	return start, end
}

// foldMatchAt reports whether the lowercased runes of s starting at
// byte offset i spell target, returning the byte offset just past the
// match, or -1.
func foldMatchAt(s string, i int, target []rune) int {
	j := i
	for _, tr := range target {
		if j >= len(s) {
			return -1
		}
		r, size := utf8.DecodeRuneInString(s[j:])
		if unicode.ToLower(r) != tr {
			return -1
		}
		j += size
	}
	return j
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
