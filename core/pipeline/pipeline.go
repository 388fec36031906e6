// Package pipeline orchestrates highlight creation, deletion and
// restoration. A Highlighter is the engine's context object: it holds
// the active projects, the color scheme, and the single-flight guard,
// and is the only place new anchors are minted.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/capture"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/gaurav-prasanna/pagemark/core/mutate"
	"github.com/gaurav-prasanna/pagemark/core/restore"
	"github.com/gaurav-prasanna/pagemark/core/similarity"
	"go.uber.org/zap"
)

// Highlighter drives the anchoring engine against one store.
type Highlighter struct {
	// mu is the reentrancy guard: at most one logical highlight
	// operation touches a document at a time.
	mu sync.Mutex

	store    core.AnchorStore
	notifier core.Notifier
	engine   *restore.Engine
	mutator  *mutate.Mutator

	scheme         core.ColorScheme
	activeProjects []string

	threshold float64
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithNotifier sets the outcome sink.
func WithNotifier(n core.Notifier) Option {
	return func(h *Highlighter) { h.notifier = n }
}

// WithLogger sets the logger, shared with the restoration engine.
func WithLogger(log *zap.Logger) Option {
	return func(h *Highlighter) { h.log = log }
}

// WithThreshold sets the partial-match similarity threshold the
// restoration engine works with.
func WithThreshold(t float64) Option {
	return func(h *Highlighter) { h.threshold = t }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Highlighter) { h.now = now }
}

// New creates a Highlighter over the given store, color scheme and
// active project set.
func New(store core.AnchorStore, scheme core.ColorScheme, activeProjects []string, opts ...Option) *Highlighter {
	h := &Highlighter{
		store:          store,
		mutator:        mutate.New(),
		scheme:         scheme,
		activeProjects: append([]string(nil), activeProjects...),
		threshold:      similarity.DefaultThreshold,
		log:            zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engine = restore.New(
		restore.WithLogger(h.log),
		restore.WithThreshold(h.threshold))
	return h
}

// Engine exposes the restoration engine, mainly for instrumented tests.
func (h *Highlighter) Engine() *restore.Engine { return h.engine }

// CreateHighlight turns a live selection into a persisted anchor and a
// marker in the document. The selection must trim to non-empty text;
// the color must belong to the active scheme; the range must not touch
// an existing highlight. Nothing is persisted unless the wrap
// succeeded, and nothing stays wrapped unless persistence succeeded.
// A nil projects slice means the active project set.
func (h *Highlighter) CreateHighlight(ctx context.Context, doc *dom.Document, rng *dom.Range, color string, projects []string, page core.PageInfo) (*core.Anchor, error) {
	if !h.mu.TryLock() {
		return nil, core.ErrBusy
	}
	defer h.mu.Unlock()

	raw := rng.Text()
	text := strings.TrimSpace(raw)
	if text == "" {
		// Recovered locally: no anchor, no user message.
		return nil, core.ErrEmptySelection
	}
	// The marker must wrap exactly the anchor's text, so the trimmed
	// whitespace is shed from the range too.
	lead := strings.Index(raw, text)
	rng.Shrink(lead, len(raw)-lead-len(text))
	if !h.scheme.Has(color) {
		h.notify(fmt.Sprintf("Unknown highlight color %q", color), core.NoteError)
		return nil, core.ErrUnknownColor
	}
	if projects == nil {
		projects = h.activeProjects
	}

	anchor := capture.NewAnchor(rng, text, color, projects, page, h.now())
	if err := anchor.Validate(h.scheme); err != nil {
		return nil, err
	}

	marker, err := h.mutator.Wrap(rng, anchor)
	if err != nil {
		h.notify("Could not highlight this selection", core.NoteError)
		return nil, err
	}

	if err := h.store.AppendAnchor(ctx, anchor); err != nil {
		// Roll the marker back: the store is the source of truth and
		// must not disagree with the document.
		_ = h.mutator.Unwrap(marker)
		h.notify("Could not save highlight", core.NoteError)
		return nil, fmt.Errorf("persisting anchor: %w", err)
	}

	h.notify(fmt.Sprintf("Highlighted as %s", h.scheme.Label(color)), core.NoteSuccess)
	h.log.Info("highlight created",
		zap.String("anchor", anchor.ID),
		zap.String("color", color),
		zap.Int("chars", len(text)))
	return &anchor, nil
}

// DeleteHighlight unwraps the anchor's marker (if present in the
// document) and removes the anchor from the store.
func (h *Highlighter) DeleteHighlight(ctx context.Context, doc *dom.Document, id string) error {
	if !h.mu.TryLock() {
		return core.ErrBusy
	}
	defer h.mu.Unlock()

	if marker := doc.MarkerByID(id); marker != nil {
		if err := h.mutator.Unwrap(marker); err != nil {
			return fmt.Errorf("unwrapping highlight %s: %w", id, err)
		}
	}
	if err := h.store.RemoveAnchor(ctx, id); err != nil {
		return fmt.Errorf("removing anchor %s: %w", id, err)
	}
	h.notify("Highlight deleted", core.NoteSuccess)
	return nil
}

// RestoreHighlights waits for the page to go quiet, reads the stored
// anchors for the URL, and restores them sequentially. Misses are
// counted, never surfaced as errors: the anchors stay stored for
// future passes. A nil observer restores immediately.
func (h *Highlighter) RestoreHighlights(ctx context.Context, doc *dom.Document, url string, obs core.QuiescenceObserver) (restore.Report, error) {
	if !h.mu.TryLock() {
		return restore.Report{}, core.ErrBusy
	}
	defer h.mu.Unlock()

	if obs != nil {
		if err := obs.AwaitQuiet(ctx); err != nil {
			return restore.Report{}, fmt.Errorf("waiting for page quiescence: %w", err)
		}
	}

	anchors, err := h.store.GetAnchorsForURL(ctx, url)
	if err != nil {
		return restore.Report{}, fmt.Errorf("loading anchors for %s: %w", url, err)
	}

	rep := h.engine.RestoreAll(doc, anchors)
	h.log.Info("restoration pass finished",
		zap.String("url", url),
		zap.Int("restored", rep.Restored),
		zap.Int("present", rep.Present),
		zap.Int("missed", rep.Missed))
	return rep, nil
}

func (h *Highlighter) notify(msg string, kind core.NoteKind) {
	if h.notifier != nil {
		h.notifier.Notify(msg, kind)
	}
}
