// Page loading shared by mark, restore and rm: an argument is either
// an http(s) URL, which is fetched and snapshotted locally, or a path
// to an HTML file on disk, which is edited in place.

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/pagemark/config"
	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
	"github.com/gaurav-prasanna/pagemark/core/fetch"
	"github.com/gaurav-prasanna/pagemark/observe"
	"github.com/gaurav-prasanna/pagemark/snapshot"
)

// page is a loaded document plus where its mutations get written back.
type page struct {
	doc      *dom.Document
	info     core.PageInfo
	outPath  string
	observer core.QuiescenceObserver
}

// loadPage fetches or reads the page argument and prepares it for a
// highlight operation.
func loadPage(ctx context.Context, cfg *config.Config, arg string) (*page, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return loadRemote(ctx, cfg, arg)
	}
	return loadLocal(cfg, arg)
}

func loadRemote(ctx context.Context, cfg *config.Config, rawURL string) (*page, error) {
	canonical := snapshot.CanonicalURL(rawURL)
	result, err := fetch.New().Fetch(ctx, canonical)
	if err != nil {
		return nil, err
	}

	writer, err := snapshot.New(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	outPath, err := writer.Write(canonical, result.HTML)
	if err != nil {
		return nil, err
	}

	return &page{
		doc:     result.Doc,
		info:    result.Info,
		outPath: outPath,
		// A fetched response is already complete.
		observer: observe.Immediate{},
	}, nil
}

func loadLocal(cfg *config.Config, path string) (*page, error) {
	// Key the partition by the absolute path so the same file marked
	// from different working directories shares its anchors.
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving page path %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", abs, err)
	}
	doc, err := dom.ParseString(string(data))
	if err != nil {
		return nil, err
	}

	watcher := observe.NewFileWatcher(abs)
	watcher.QuietPeriod = cfg.Quiescence.QuietPeriod
	watcher.MaxWait = cfg.Quiescence.MaxWait

	return &page{
		doc: doc,
		info: core.PageInfo{
			URL: "file://" + abs,
			// The conventional file URI authority.
			Domain: "localhost",
			Title:  doc.Title(),
		},
		outPath:  abs,
		observer: watcher,
	}, nil
}

// save writes the (possibly mutated) document back out.
func (p *page) save() error {
	html, err := p.doc.HTML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.outPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing page %s: %w", p.outPath, err)
	}
	return nil
}
