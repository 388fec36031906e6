package capture

import (
	"strings"
	"testing"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnchor(t *testing.T) {
	doc, err := dom.ParseString(`<p id="intro" class="lead body">Some before text hello world some after text</p>`)
	require.NoError(t, err)
	rng, err := doc.SelectText("hello world", 1)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	page := core.PageInfo{URL: "https://example.com/a", Domain: "example.com", Title: "A"}
	a := NewAnchor(rng, "hello world", "yellow", []string{"Personal"}, page, now)

	assert.Equal(t, "hello world", a.Text)
	assert.Equal(t, "yellow", a.Color)
	assert.Equal(t, []string{"Personal"}, a.Projects)
	assert.Equal(t, "https://example.com/a", a.URL)
	assert.Equal(t, "2026-03-01T12:00:00Z", a.Timestamp)
	assert.True(t, strings.HasPrefix(a.ID, "highlight-"), "id %q", a.ID)
	assert.Contains(t, a.ID, "1772366400000", "id embeds the creation instant")

	require.NotNil(t, a.Context)
	assert.Equal(t, "Some before text ", a.Context.Before)
	assert.Equal(t, " some after text", a.Context.After)
	assert.Equal(t, "p", a.Context.ParentTag)
	assert.Equal(t, "lead body", a.Context.ParentClass)
	assert.Equal(t, "intro", a.Context.ParentID)
}

func TestNewAnchorIDsUnique(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t, NewID(now), NewID(now))
}

func TestCaptureContextWindowBounded(t *testing.T) {
	long := strings.Repeat("x", 200)
	doc, err := dom.ParseString(`<p>` + long + `needle` + long + `</p>`)
	require.NoError(t, err)
	rng, err := doc.SelectText("needle", 1)
	require.NoError(t, err)

	ctx := CaptureContext(rng, "needle")
	require.NotNil(t, ctx)
	assert.Len(t, ctx.Before, 75)
	assert.Len(t, ctx.After, 75)
}

func TestCaptureContextNilWhenUnresolvable(t *testing.T) {
	// A selection spanning two paragraphs cannot be located within its
	// start node's parent alone.
	doc, err := dom.ParseString(`<div><p>abc</p><p>def</p></div>`)
	require.NoError(t, err)
	rng, err := doc.SelectText("abcdef", 1)
	require.NoError(t, err)

	assert.Nil(t, CaptureContext(rng, "abcdef"))
}
