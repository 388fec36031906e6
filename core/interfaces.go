// Package core defines the shared types and interfaces for PageMark.
// The anchoring engine is split into small stages (normalize, similarity,
// dom, mutate, capture, restore, pipeline); this package holds the data
// model they exchange and the contracts the host environment fulfils.
package core

import (
	"context"
	"errors"
	"time"
)

// Context is the DOM neighborhood captured around a highlight at creation
// time. It is used only by the restoration engine, never displayed. A nil
// *Context on an Anchor means capture failed; restoration skips the
// context strategy for that anchor.
type Context struct {
	Before      string `json:"before"`
	After       string `json:"after"`
	ParentTag   string `json:"parent_tag"`
	ParentClass string `json:"parent_class,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
}

// Anchor is the persisted description of one highlight. Text and ID are
// immutable after creation; edits touch Note only.
type Anchor struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Color     string   `json:"color"`
	Context   *Context `json:"context,omitempty"`
	URL       string   `json:"url"`
	Domain    string   `json:"domain"`
	Title     string   `json:"title"`
	Timestamp string   `json:"timestamp"` // ISO8601
	Projects  []string `json:"projects"`
	Note      string   `json:"note,omitempty"`
}

// CreatedAt parses the anchor's timestamp. Zero time on a malformed value.
func (a Anchor) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, a.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Validate checks the invariants the store relies on: non-empty text, a
// non-empty project set, a color known to the scheme active at creation.
func (a Anchor) Validate(scheme ColorScheme) error {
	if a.ID == "" {
		return errors.New("anchor has no id")
	}
	if a.Text == "" {
		return ErrEmptySelection
	}
	if len(a.Projects) == 0 {
		return ErrNoProjects
	}
	if scheme != nil && !scheme.Has(a.Color) {
		return ErrUnknownColor
	}
	return nil
}

// ColorScheme maps a color name to its user-facing label
// (e.g. "yellow" -> "Important"). The set is configurable per project.
type ColorScheme map[string]string

// Has reports whether the color belongs to the scheme.
func (s ColorScheme) Has(color string) bool {
	_, ok := s[color]
	return ok
}

// Label returns the label for a color, falling back to the color name.
func (s ColorScheme) Label(color string) string {
	if label, ok := s[color]; ok && label != "" {
		return label
	}
	return color
}

// PageInfo identifies the page an anchor belongs to. URL is the partition
// key anchors are filtered by on restoration.
type PageInfo struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Title  string `json:"title"`
}

// AnchorStore is the external persistence collaborator. A successful
// AppendAnchor must be visible to a subsequent GetAnchorsForURL on the
// same URL. Eviction and retention policy belong to the store, not the
// engine.
type AnchorStore interface {
	GetAnchorsForURL(ctx context.Context, url string) ([]Anchor, error)
	AppendAnchor(ctx context.Context, anchor Anchor) error
	UpdateAnchor(ctx context.Context, anchor Anchor) error
	RemoveAnchor(ctx context.Context, id string) error
}

// Notifier receives human-readable outcome strings for display. The
// engine renders no UI itself.
type Notifier interface {
	Notify(message string, kind NoteKind)
}

// NoteKind classifies a notification.
type NoteKind int

const (
	NoteInfo NoteKind = iota
	NoteSuccess
	NoteError
)

// QuiescenceObserver resolves once the page has reached a quiescent
// state: no structural change for a quiet period, bounded by a hard
// maximum wait after which it resolves regardless.
type QuiescenceObserver interface {
	AwaitQuiet(ctx context.Context) error
}

// Error taxonomy. Strategy-internal failures during restoration are not
// errors in this sense: they fall through to the next strategy.
var (
	// ErrEmptySelection marks a selection that trimmed to zero length.
	// Recovered locally; no anchor is created and no message is shown.
	ErrEmptySelection = errors.New("selection is empty")

	// ErrOverlappingHighlight marks a range whose interior already
	// contains a highlight marker. Surfaced to the user; the anchor is
	// never created.
	ErrOverlappingHighlight = errors.New("selection overlaps an existing highlight")

	// ErrWrapFailed marks a range all three wrap strategies rejected.
	// Surfaced to the user; the anchor is never persisted.
	ErrWrapFailed = errors.New("could not wrap selection")

	// ErrUnknownColor marks a color outside the active scheme.
	ErrUnknownColor = errors.New("color not in active scheme")

	// ErrNoProjects marks an anchor with an empty project set.
	ErrNoProjects = errors.New("anchor has no projects")

	// ErrBusy marks a create attempt while another highlight operation
	// is in flight.
	ErrBusy = errors.New("highlight operation already in progress")

	// ErrNotFound marks a store lookup for an unknown anchor id.
	ErrNotFound = errors.New("anchor not found")
)
