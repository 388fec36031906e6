// Creates a highlight: load the page, restore its existing highlights
// so overlaps are detected, wrap the selection, persist the anchor,
// and write the page back.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/pagemark/config"
	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/pipeline"
	"github.com/gaurav-prasanna/pagemark/store/sqlitestore"
	"github.com/spf13/cobra"
)

var (
	flagText       string
	flagOccurrence int
	flagColor      string
	flagProjects   []string
)

var markCmd = &cobra.Command{
	Use:   "mark <url-or-file>",
	Short: "Highlight a text selection on a page",
	Long: `Mark selects text on a page by its content and wraps it in a persistent
highlight. The anchor is stored and restored on later passes even if
the page has changed.

Examples:
  pagemark mark https://example.com/article --text "hello world" --color yellow
  pagemark mark notes.html --text "second match" --occurrence 2 --color green --project Work`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)
	markCmd.Flags().StringVar(&flagText, "text", "", "Text to highlight (required)")
	markCmd.Flags().IntVar(&flagOccurrence, "occurrence", 1, "Which occurrence of the text to highlight")
	markCmd.Flags().StringVar(&flagColor, "color", "yellow", "Highlight color")
	markCmd.Flags().StringSliceVar(&flagProjects, "project", nil, "Project(s) for the highlight (default: active projects)")
	_ = markCmd.MarkFlagRequired("text")
}

func runMark(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(flagText) == "" {
		return fmt.Errorf("--text must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	pg, err := loadPage(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	scheme := activeScheme(cfg)
	h := pipeline.New(store, scheme, cfg.ActiveProjects,
		pipeline.WithNotifier(consoleNotifier{}),
		pipeline.WithLogger(log),
		pipeline.WithThreshold(cfg.MatchThreshold))

	// Bring previously stored highlights into the document first, so
	// the overlap check sees them.
	if _, err := h.RestoreHighlights(ctx, pg.doc, pg.info.URL, pg.observer); err != nil {
		return err
	}

	rng, err := pg.doc.SelectText(strings.TrimSpace(flagText), flagOccurrence)
	if err != nil {
		return err
	}

	anchor, err := h.CreateHighlight(ctx, pg.doc, rng, flagColor, flagProjects, pg.info)
	if err != nil {
		if errors.Is(err, core.ErrEmptySelection) {
			return nil
		}
		return err
	}

	if err := pg.save(); err != nil {
		return err
	}
	fmt.Printf("Created %s in %s\n", anchor.ID, pg.outPath)
	return nil
}

// openStore opens the sqlite anchor store, creating its directory.
func openStore(path string) (*sqlitestore.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return sqlitestore.Open(path)
}

// activeScheme merges the schemes of every active project; the first
// active project wins on conflicting labels.
func activeScheme(cfg *config.Config) core.ColorScheme {
	merged := core.ColorScheme{}
	for i := len(cfg.ActiveProjects) - 1; i >= 0; i-- {
		for color, label := range cfg.Scheme(cfg.ActiveProjects[i]) {
			merged[color] = label
		}
	}
	return merged
}
