// Re-places every stored highlight for a page into its current
// content and reports what was restored, already present, or missed.

package cmd

import (
	"context"
	"fmt"

	"github.com/gaurav-prasanna/pagemark/core/pipeline"
	"github.com/spf13/cobra"
)

var flagRestoreOut string

var restoreCmd = &cobra.Command{
	Use:   "restore <url-or-file>",
	Short: "Restore stored highlights into a page",
	Long: `Restore loads the page, waits for it to stop changing, and re-places
every anchor stored for its URL. Anchors that cannot be located are
left in the store untouched; they may restore on a later pass.

Examples:
  pagemark restore https://example.com/article
  pagemark restore notes.html -o marked.html`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringVarP(&flagRestoreOut, "output", "o", "", "Write the restored page here instead of in place")
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	h := pipeline.New(store, activeScheme(cfg), cfg.ActiveProjects,
		pipeline.WithNotifier(consoleNotifier{}),
		pipeline.WithLogger(log),
		pipeline.WithThreshold(cfg.MatchThreshold))

	rep, err := h.RestoreHighlights(ctx, pg.doc, pg.info.URL, pg.observer)
	if err != nil {
		return err
	}

	if flagRestoreOut != "" {
		pg.outPath = flagRestoreOut
	}
	if err := pg.save(); err != nil {
		return err
	}

	fmt.Printf("Restored %d, already present %d, missed %d → %s\n",
		rep.Restored, rep.Present, rep.Missed, pg.outPath)
	return nil
}
