// Package capture builds Anchors from live selections. This and the
// pipeline that calls it are the only places new anchors are minted;
// restoration only re-renders anchors that already exist.
package capture

import (
	"fmt"
	"strings"
	"time"

	jdom "github.com/JohannesKaufmann/dom"
	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// contextWindow bounds the before/after snippets recorded around a
// highlight, in runes.
const contextWindow = 75

// NewID mints an anchor id: creation instant plus a random suffix.
func NewID(now time.Time) string {
	return fmt.Sprintf("highlight-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// NewAnchor builds the persisted anchor for a selection. The anchor
// stores the selection text exactly as captured; context capture may
// fail, in which case Context is nil and restoration will skip the
// context strategy.
func NewAnchor(rng *dom.Range, text, color string, projects []string, page core.PageInfo, now time.Time) core.Anchor {
	return core.Anchor{
		ID:        NewID(now),
		Text:      text,
		Color:     color,
		Context:   CaptureContext(rng, text),
		URL:       page.URL,
		Domain:    page.Domain,
		Title:     page.Title,
		Timestamp: now.UTC().Format(time.RFC3339),
		Projects:  append([]string(nil), projects...),
	}
}

// CaptureContext records the DOM neighborhood of a selection: up to
// contextWindow runes of text immediately before and after the
// selection within its immediate parent element, plus the parent's
// tag, class list and id. Returns nil when the parent cannot be
// resolved or the selection text cannot be located inside it.
func CaptureContext(rng *dom.Range, text string) *core.Context {
	parent := rng.Start.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return nil
	}

	full := dom.TextOf(parent)
	pos := strings.Index(full, text)
	if pos < 0 {
		return nil
	}

	return &core.Context{
		Before:      tailRunes(full[:pos], contextWindow),
		After:       headRunes(full[pos+len(text):], contextWindow),
		ParentTag:   parent.Data,
		ParentClass: jdom.GetAttributeOr(parent, "class", ""),
		ParentID:    jdom.GetAttributeOr(parent, "id", ""),
	}
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// headRunes returns the first n runes of s.
func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
