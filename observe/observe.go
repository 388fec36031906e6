// Package observe provides page-quiescence observers: a capability the
// host hands the engine that resolves once the page has stopped
// mutating for a quiet period, bounded by a hard maximum wait.
// Restoring too early risks matching a DOM that will still change;
// waiting forever risks never restoring on pages that never settle.
package observe

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultQuietPeriod is how long the page must hold still.
	DefaultQuietPeriod = 500 * time.Millisecond
	// DefaultMaxWait caps the whole wait; quiescence is assumed once
	// it elapses.
	DefaultMaxWait = 5 * time.Second
)

// Immediate is the observer for inputs that are already complete
// (a fetched response, a string in a test). AwaitQuiet returns at once.
type Immediate struct{}

// AwaitQuiet resolves immediately.
func (Immediate) AwaitQuiet(context.Context) error { return nil }

// Poller observes quiescence through a size measurement, the moral
// equivalent of checking the document height: the page is quiet when
// the measurement stops changing between checks.
type Poller struct {
	Measure     func() (int64, error)
	QuietPeriod time.Duration
	MaxWait     time.Duration
}

// NewPoller creates a Poller with the default timings.
func NewPoller(measure func() (int64, error)) *Poller {
	return &Poller{
		Measure:     measure,
		QuietPeriod: DefaultQuietPeriod,
		MaxWait:     DefaultMaxWait,
	}
}

// AwaitQuiet polls the measurement every quiet period until two
// consecutive readings agree, or the maximum wait elapses, whichever
// comes first. Elapsing the cap is not an error: restoration proceeds
// regardless.
func (p *Poller) AwaitQuiet(ctx context.Context) error {
	deadline := time.Now().Add(p.MaxWait)

	last, err := p.Measure()
	if err != nil {
		return fmt.Errorf("measuring page: %w", err)
	}
	ticker := time.NewTicker(p.QuietPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			curr, err := p.Measure()
			if err != nil {
				return fmt.Errorf("measuring page: %w", err)
			}
			if curr == last {
				return nil
			}
			last = curr
			if time.Now().After(deadline) {
				return nil
			}
		}
	}
}

// FileWatcher observes a page snapshot on disk and resolves once no
// write has landed for the quiet period.
type FileWatcher struct {
	Path        string
	QuietPeriod time.Duration
	MaxWait     time.Duration
}

// NewFileWatcher creates a FileWatcher with the default timings.
func NewFileWatcher(path string) *FileWatcher {
	return &FileWatcher{
		Path:        path,
		QuietPeriod: DefaultQuietPeriod,
		MaxWait:     DefaultMaxWait,
	}
}

// AwaitQuiet resolves after a quiet period with no writes to the file,
// or once the maximum wait elapses.
func (w *FileWatcher) AwaitQuiet(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Path); err != nil {
		return fmt.Errorf("watching %s: %w", w.Path, err)
	}

	quiet := time.NewTimer(w.QuietPeriod)
	defer quiet.Stop()
	limit := time.NewTimer(w.MaxWait)
	defer limit.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quiet.C:
			return nil
		case <-limit.C:
			return nil
		case ev := <-watcher.Events:
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				quiet.Reset(w.QuietPeriod)
			}
		case err := <-watcher.Errors:
			return fmt.Errorf("watching %s: %w", w.Path, err)
		}
	}
}
