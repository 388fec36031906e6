// Package restore re-locates persisted anchors in a live document and
// re-creates their highlight markers. Each anchor is tried against a
// short-circuit cascade of strategies of increasing tolerance:
//
//	existing marker → exact → context → fuzzy → partial
//
// The first strategy to produce a range wins. A miss is not an error:
// the anchor stays in the store and may restore on a later pass, once
// the page content has stabilized differently.
package restore

import (
	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/gaurav-prasanna/pagemark/core/mutate"
	"github.com/gaurav-prasanna/pagemark/core/similarity"
	"go.uber.org/zap"
)

// Outcome is the terminal state of one anchor's restoration.
type Outcome int

const (
	// OutcomePresent means a marker with the anchor's id already
	// exists; restoring again is a no-op.
	OutcomePresent Outcome = iota
	// OutcomeRestored means a strategy located the anchor and the
	// marker was placed.
	OutcomeRestored
	// OutcomeMissed means no strategy located the anchor in this
	// document. The anchor is untouched in the store.
	OutcomeMissed
)

// Calls counts strategy invocations. Tests use it to assert the
// cascade short-circuits.
type Calls struct {
	Exact   int
	Context int
	Fuzzy   int
	Partial int
}

// Report summarizes one restoration pass over a page's anchors.
type Report struct {
	Present   int
	Restored  int
	Missed    int
	MissedIDs []string
}

// Engine restores anchors into documents.
type Engine struct {
	mutator   *mutate.Mutator
	threshold float64
	log       *zap.Logger

	// Calls accumulates strategy invocation counts across restores.
	Calls Calls
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithThreshold overrides the partial-match similarity threshold.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		mutator:   mutate.New(),
		threshold: similarity.DefaultThreshold,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore places one anchor in the document. It never creates an
// anchor and never returns an error for a plain miss; failures inside
// a strategy count as that strategy failing and the cascade moves on.
func (e *Engine) Restore(doc *dom.Document, a core.Anchor) Outcome {
	if doc.MarkerByID(a.ID) != nil {
		return OutcomePresent
	}

	for _, strat := range []struct {
		name   string
		locate func(*dom.Document, core.Anchor) *dom.Range
	}{
		{"exact", e.exactMatch},
		{"context", e.contextMatch},
		{"fuzzy", e.fuzzyMatch},
		{"partial", e.partialMatch},
	} {
		rng := strat.locate(doc, a)
		if rng == nil {
			continue
		}
		if _, err := e.mutator.Wrap(rng, a); err != nil {
			// A located range the mutator rejects counts as this
			// strategy failing; later strategies may still find a
			// cleaner spot.
			e.log.Debug("wrap rejected located range",
				zap.String("anchor", a.ID),
				zap.String("strategy", strat.name),
				zap.Error(err))
			continue
		}
		e.log.Debug("anchor restored",
			zap.String("anchor", a.ID),
			zap.String("strategy", strat.name))
		return OutcomeRestored
	}

	e.log.Debug("anchor not found in document", zap.String("anchor", a.ID))
	return OutcomeMissed
}

// RestoreAll restores a page's anchors sequentially. The order matters
// only in that each restoration must see the markers placed by the
// ones before it, so it can skip them.
func (e *Engine) RestoreAll(doc *dom.Document, anchors []core.Anchor) Report {
	var rep Report
	for _, a := range anchors {
		switch e.Restore(doc, a) {
		case OutcomePresent:
			rep.Present++
		case OutcomeRestored:
			rep.Restored++
		case OutcomeMissed:
			rep.Missed++
			rep.MissedIDs = append(rep.MissedIDs, a.ID)
		}
	}
	return rep
}
