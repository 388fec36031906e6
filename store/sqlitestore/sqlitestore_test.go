package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "anchors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func anchorAt(id string, created time.Time) core.Anchor {
	return core.Anchor{
		ID:        id,
		Text:      "the stored text",
		Color:     "yellow",
		URL:       "https://example.com/page",
		Domain:    "example.com",
		Title:     "Page",
		Timestamp: created.UTC().Format(time.RFC3339),
		Projects:  []string{"Personal", "Work"},
	}
}

func TestAppendThenGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := anchorAt("h1", time.Now())
	a.Context = &core.Context{
		Before:    "words before ",
		After:     " words after",
		ParentTag: "p",
		ParentID:  "intro",
	}
	a.Note = "remember this"
	require.NoError(t, s.AppendAnchor(ctx, a))

	got, err := s.GetAnchorsForURL(ctx, a.URL)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0])
}

func TestNilContextSurvivesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := anchorAt("h1", time.Now())
	require.NoError(t, s.AppendAnchor(ctx, a))

	got, err := s.GetAnchorsForURL(ctx, a.URL)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Context)
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendAnchor(ctx, anchorAt("h1", time.Now())))
	assert.Error(t, s.AppendAnchor(ctx, anchorAt("h1", time.Now())))
}

func TestUpdateAnchor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := anchorAt("h1", time.Now())
	require.NoError(t, s.AppendAnchor(ctx, a))

	a.Note = "edited"
	require.NoError(t, s.UpdateAnchor(ctx, a))

	got, err := s.GetAnchorsForURL(ctx, a.URL)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "edited", got[0].Note)

	missing := anchorAt("nope", time.Now())
	assert.ErrorIs(t, s.UpdateAnchor(ctx, missing), core.ErrNotFound)
}

func TestRemoveAnchor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendAnchor(ctx, anchorAt("h1", time.Now())))
	require.NoError(t, s.RemoveAnchor(ctx, "h1"))

	got, err := s.GetAnchorsForURL(ctx, "https://example.com/page")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.NoError(t, s.RemoveAnchor(ctx, "h1"))
}

func TestDeleteOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.AppendAnchor(ctx, anchorAt("old", now.AddDate(-2, 0, 0))))
	require.NoError(t, s.AppendAnchor(ctx, anchorAt("fresh", now)))

	dropped, err := s.DeleteOlderThan(ctx, now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, dropped)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh", all[0].ID)
}
