package mutate

import (
	"testing"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchorFor(text string) core.Anchor {
	return core.Anchor{
		ID:       "highlight-1-test",
		Text:     text,
		Color:    "yellow",
		URL:      "https://example.com",
		Projects: []string{"Personal"},
	}
}

func TestWrapSingleNode(t *testing.T) {
	doc, err := dom.ParseString(`<p>some hello world text</p>`)
	require.NoError(t, err)

	rng, err := doc.SelectText("hello world", 1)
	require.NoError(t, err)

	marker, err := New().Wrap(rng, anchorFor("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", dom.TextOf(marker))
	assert.Same(t, marker, doc.MarkerByID("highlight-1-test"))

	// The page's text content is unchanged by the wrap.
	assert.Equal(t, "some hello world text", doc.Text())
}

func TestWrapAcrossElementBoundary(t *testing.T) {
	doc, err := dom.ParseString(`<div><b>bold</b> and plain trailing</div>`)
	require.NoError(t, err)

	rng, err := doc.SelectText("bold and plain", 1)
	require.NoError(t, err)

	marker, err := New().Wrap(rng, anchorFor("bold and plain"))
	require.NoError(t, err)
	assert.Equal(t, "bold and plain", dom.TextOf(marker))
	assert.Equal(t, "bold and plain trailing", doc.Text())

	// The <b> element survived inside the marker.
	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "<b>bold</b>")
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		target string
	}{
		{name: "single node", html: `<p>plain paragraph of text</p>`, target: "paragraph of"},
		{name: "whole element", html: `<div><b>bold</b> and plain</div>`, target: "bold and plain"},
		{name: "partial element boundary", html: `<div>start <em>middle part</em> finish</div>`, target: "start middle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := dom.ParseString(tt.html)
			require.NoError(t, err)
			before := doc.Text()

			rng, err := doc.SelectText(tt.target, 1)
			require.NoError(t, err)

			m := New()
			marker, err := m.Wrap(rng, anchorFor(tt.target))
			require.NoError(t, err)
			assert.Equal(t, before, doc.Text(), "wrap must not change text content")

			require.NoError(t, m.Unwrap(marker))
			assert.Equal(t, before, doc.Text(), "unwrap must restore text content")
			assert.Empty(t, doc.Markers())
		})
	}
}

func TestUnwrapLeavesChildrenInPlace(t *testing.T) {
	doc, err := dom.ParseString(`<div>before <mark class="pagemark pagemark-blue" data-highlight-id="h1" data-color="blue"><b>bold</b> and plain</mark> after</div>`)
	require.NoError(t, err)

	marker := doc.MarkerByID("h1")
	require.NotNil(t, marker)
	require.NoError(t, New().Unwrap(marker))

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `<div>before <b>bold</b> and plain after</div>`)
	assert.Empty(t, doc.Markers())
}

func TestWrapRejectsOverlap(t *testing.T) {
	doc, err := dom.ParseString(`<p>before <mark class="pagemark pagemark-yellow" data-highlight-id="h1" data-color="yellow">already marked text</mark> after</p>`)
	require.NoError(t, err)

	// Entirely inside the existing marker.
	rng, err := doc.SelectText("marked", 1)
	require.NoError(t, err)
	_, err = New().Wrap(rng, anchorFor("marked"))
	assert.ErrorIs(t, err, core.ErrOverlappingHighlight)

	// Straddling the marker boundary.
	rng, err = doc.SelectText("before already", 1)
	require.NoError(t, err)
	_, err = New().Wrap(rng, anchorFor("before already"))
	assert.ErrorIs(t, err, core.ErrOverlappingHighlight)

	// Only one marker remains and the text is untouched.
	assert.Len(t, doc.Markers(), 1)
	assert.Equal(t, "before already marked text after", doc.Text())
}

func TestWrapAdjacentToMarkerAllowed(t *testing.T) {
	doc, err := dom.ParseString(`<p>free text <mark class="pagemark pagemark-yellow" data-highlight-id="h1" data-color="yellow">marked</mark> tail words</p>`)
	require.NoError(t, err)

	rng, err := doc.SelectText("tail words", 1)
	require.NoError(t, err)
	_, err = New().Wrap(rng, anchorFor("tail words"))
	require.NoError(t, err)
	assert.Len(t, doc.Markers(), 2)
}

func TestUnwrapDetachedMarker(t *testing.T) {
	err := New().Unwrap(nil)
	assert.Error(t, err)
}
