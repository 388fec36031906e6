package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/gaurav-prasanna/pagemark/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testScheme = core.ColorScheme{
	"yellow": "Important",
	"green":  "Ideas",
}

var testPage = core.PageInfo{
	URL:    "https://example.com/article",
	Domain: "example.com",
	Title:  "Article",
}

type recordingNotifier struct {
	messages []string
	kinds    []core.NoteKind
}

func (n *recordingNotifier) Notify(msg string, kind core.NoteKind) {
	n.messages = append(n.messages, msg)
	n.kinds = append(n.kinds, kind)
}

type failingStore struct{ core.AnchorStore }

func (failingStore) AppendAnchor(context.Context, core.Anchor) error {
	return errors.New("storage quota exceeded")
}

func mustParse(t *testing.T, html string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err)
	return doc
}

func TestCreateHighlight(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{}
	h := New(store, testScheme, []string{"Personal"}, WithNotifier(notifier))

	doc := mustParse(t, `<p>say hello world to everyone</p>`)
	rng, err := doc.SelectText("hello world", 1)
	require.NoError(t, err)

	ctx := context.Background()
	anchor, err := h.CreateHighlight(ctx, doc, rng, "yellow", []string{"Personal"}, testPage)
	require.NoError(t, err)

	assert.Equal(t, "hello world", anchor.Text)
	assert.Equal(t, "yellow", anchor.Color)
	assert.Equal(t, []string{"Personal"}, anchor.Projects)
	assert.Equal(t, testPage.URL, anchor.URL)

	marker := doc.MarkerByID(anchor.ID)
	require.NotNil(t, marker)
	assert.Equal(t, "hello world", dom.TextOf(marker))

	stored, err := store.GetAnchorsForURL(ctx, testPage.URL)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, anchor.ID, stored[0].ID)

	assert.Equal(t, []string{"Highlighted as Important"}, notifier.messages)
}

func TestCreateHighlightDefaultsToActiveProjects(t *testing.T) {
	h := New(memstore.New(), testScheme, []string{"Work", "Research"})
	doc := mustParse(t, `<p>some selected words</p>`)
	rng, err := doc.SelectText("selected words", 1)
	require.NoError(t, err)

	anchor, err := h.CreateHighlight(context.Background(), doc, rng, "green", nil, testPage)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "Research"}, anchor.Projects)
}

func TestCreateHighlightTrimsSelectionEdges(t *testing.T) {
	store := memstore.New()
	h := New(store, testScheme, []string{"Personal"})
	doc := mustParse(t, `<p>alpha  middle words  omega</p>`)

	rng, err := doc.SelectText("  middle words  ", 1)
	require.NoError(t, err)

	anchor, err := h.CreateHighlight(context.Background(), doc, rng, "yellow", nil, testPage)
	require.NoError(t, err)
	assert.Equal(t, "middle words", anchor.Text)

	// The marker wraps exactly the anchor's text, not the padded
	// selection around it.
	marker := doc.MarkerByID(anchor.ID)
	require.NotNil(t, marker)
	assert.Equal(t, "middle words", dom.TextOf(marker))
	assert.Equal(t, "alpha  middle words  omega", doc.Text())
}

func TestCreateHighlightEmptySelection(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{}
	h := New(store, testScheme, []string{"Personal"}, WithNotifier(notifier))

	doc := mustParse(t, `<p>a   b</p>`)
	rng, err := doc.SelectText("   ", 1)
	require.NoError(t, err)

	anchor, err := h.CreateHighlight(context.Background(), doc, rng, "yellow", nil, testPage)
	assert.Nil(t, anchor)
	assert.ErrorIs(t, err, core.ErrEmptySelection)
	// Recovered silently: no marker, no message.
	assert.Empty(t, doc.Markers())
	assert.Empty(t, notifier.messages)
}

func TestCreateHighlightUnknownColor(t *testing.T) {
	h := New(memstore.New(), testScheme, []string{"Personal"})
	doc := mustParse(t, `<p>some words</p>`)
	rng, err := doc.SelectText("some words", 1)
	require.NoError(t, err)

	_, err = h.CreateHighlight(context.Background(), doc, rng, "chartreuse", nil, testPage)
	assert.ErrorIs(t, err, core.ErrUnknownColor)
	assert.Empty(t, doc.Markers())
}

func TestCreateHighlightInsideExistingRejected(t *testing.T) {
	store := memstore.New()
	notifier := &recordingNotifier{}
	h := New(store, testScheme, []string{"Personal"}, WithNotifier(notifier))

	doc := mustParse(t, `<p>intro the whole phrase outro</p>`)
	ctx := context.Background()

	rng, err := doc.SelectText("the whole phrase", 1)
	require.NoError(t, err)
	_, err = h.CreateHighlight(ctx, doc, rng, "yellow", nil, testPage)
	require.NoError(t, err)

	// Now select text entirely inside the first highlight.
	rng, err = doc.SelectText("whole", 1)
	require.NoError(t, err)
	anchor, err := h.CreateHighlight(ctx, doc, rng, "green", nil, testPage)
	assert.Nil(t, anchor)
	assert.ErrorIs(t, err, core.ErrOverlappingHighlight)

	// No second anchor was created anywhere.
	stored, err := store.GetAnchorsForURL(ctx, testPage.URL)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, doc.Markers(), 1)
	assert.Contains(t, notifier.messages, "Could not highlight this selection")
}

func TestCreateHighlightStoreFailureRollsBack(t *testing.T) {
	h := New(failingStore{}, testScheme, []string{"Personal"})
	doc := mustParse(t, `<p>persist me if you can</p>`)
	before := doc.Text()

	rng, err := doc.SelectText("persist me", 1)
	require.NoError(t, err)

	_, err = h.CreateHighlight(context.Background(), doc, rng, "yellow", nil, testPage)
	require.Error(t, err)

	// The marker was rolled back: store and document agree again.
	assert.Empty(t, doc.Markers())
	assert.Equal(t, before, doc.Text())
}

func TestDeleteHighlight(t *testing.T) {
	store := memstore.New()
	h := New(store, testScheme, []string{"Personal"})
	doc := mustParse(t, `<p>keep this drop that keep this too</p>`)
	ctx := context.Background()

	rng, err := doc.SelectText("drop that", 1)
	require.NoError(t, err)
	anchor, err := h.CreateHighlight(ctx, doc, rng, "yellow", nil, testPage)
	require.NoError(t, err)

	require.NoError(t, h.DeleteHighlight(ctx, doc, anchor.ID))
	assert.Empty(t, doc.Markers())
	assert.Equal(t, "keep this drop that keep this too", doc.Text())

	stored, err := store.GetAnchorsForURL(ctx, testPage.URL)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRestoreHighlightsRoundTrip(t *testing.T) {
	store := memstore.New()
	h := New(store, testScheme, []string{"Personal"})
	ctx := context.Background()

	// Create on one parse of the page...
	doc := mustParse(t, `<p>the part to highlight and the rest</p>`)
	rng, err := doc.SelectText("part to highlight", 1)
	require.NoError(t, err)
	anchor, err := h.CreateHighlight(ctx, doc, rng, "yellow", nil, testPage)
	require.NoError(t, err)

	// ...restore on a fresh parse, as after a page reload.
	fresh := mustParse(t, `<p>the part to highlight and the rest</p>`)
	rep, err := h.RestoreHighlights(ctx, fresh, testPage.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Restored)
	assert.Zero(t, rep.Missed)

	marker := fresh.MarkerByID(anchor.ID)
	require.NotNil(t, marker)
	assert.Equal(t, "part to highlight", dom.TextOf(marker))

	// A second pass is a no-op.
	rep, err = h.RestoreHighlights(ctx, fresh, testPage.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Present)
	assert.Zero(t, rep.Restored)
	assert.Len(t, fresh.Markers(), 1)
}

func TestRestoreThresholdConfigurable(t *testing.T) {
	// Partial matching accepts a drifted tail at the default
	// threshold; a stricter configured threshold makes it miss.
	drifted := `<p>The committee approved the annual plan for 2031.</p>`
	a := core.Anchor{
		ID:       "h1",
		Text:     "The committee approved the annual budget",
		Color:    "yellow",
		URL:      testPage.URL,
		Projects: []string{"Personal"},
	}
	ctx := context.Background()

	lenient := memstore.New()
	require.NoError(t, lenient.AppendAnchor(ctx, a))
	h := New(lenient, testScheme, []string{"Personal"})
	rep, err := h.RestoreHighlights(ctx, mustParse(t, drifted), testPage.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Restored)

	strict := memstore.New()
	require.NoError(t, strict.AppendAnchor(ctx, a))
	h = New(strict, testScheme, []string{"Personal"}, WithThreshold(0.99))
	rep, err = h.RestoreHighlights(ctx, mustParse(t, drifted), testPage.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Missed)
}

type slowObserver struct{ waited bool }

func (o *slowObserver) AwaitQuiet(ctx context.Context) error {
	o.waited = true
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

func TestRestoreHighlightsWaitsForQuiescence(t *testing.T) {
	h := New(memstore.New(), testScheme, []string{"Personal"})
	doc := mustParse(t, `<p>anything</p>`)

	obs := &slowObserver{}
	_, err := h.RestoreHighlights(context.Background(), doc, testPage.URL, obs)
	require.NoError(t, err)
	assert.True(t, obs.waited)
}
