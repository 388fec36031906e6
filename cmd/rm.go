// Deletes a highlight: unwraps its marker if the page is given and the
// marker is present, then removes the anchor from the store.

package cmd

import (
	"context"

	"github.com/gaurav-prasanna/pagemark/core/pipeline"
	"github.com/spf13/cobra"
)

var flagRmPage string

var rmCmd = &cobra.Command{
	Use:   "rm <anchor-id>",
	Short: "Delete a highlight",
	Long: `Rm removes a highlight from the store. With --page, the page is loaded,
the highlight's marker is unwrapped (restoring the original text
placement), and the page is written back.

Examples:
  pagemark rm highlight-1712345678901-ab12cd34
  pagemark rm highlight-1712345678901-ab12cd34 --page notes.html`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().StringVar(&flagRmPage, "page", "", "Page to unwrap the marker in")
}

func runRm(cmd *cobra.Command, args []string) error {
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
	h := pipeline.New(store, activeScheme(cfg), cfg.ActiveProjects,
		pipeline.WithNotifier(consoleNotifier{}),
		pipeline.WithLogger(log),
		pipeline.WithThreshold(cfg.MatchThreshold))

	if flagRmPage == "" {
		return store.RemoveAnchor(ctx, args[0])
	}

	pg, err := loadPage(ctx, cfg, flagRmPage)
	if err != nil {
		return err
	}
	if err := h.DeleteHighlight(ctx, pg.doc, args[0]); err != nil {
		return err
	}
	return pg.save()
}
