// Each highlight carries a single note slot; setting a note replaces
// the previous one, and an empty note clears the slot.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:   "note <anchor-id> [text]",
	Short: "Set or clear a highlight's note",
	Long: `Note attaches a free-text annotation to a highlight. A highlight has
one note slot: setting a note replaces the old one, and omitting the
text clears it.

Examples:
  pagemark note highlight-1712345678901-ab12cd34 "follow up with the authors"
  pagemark note highlight-1712345678901-ab12cd34`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runNote,
}

func init() {
	rootCmd.AddCommand(noteCmd)
}

func runNote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	anchor, err := findAnchor(ctx, store, args[0])
	if err != nil {
		return err
	}

	note := ""
	if len(args) == 2 {
		note = strings.TrimSpace(args[1])
	}
	anchor.Note = note

	if err := store.UpdateAnchor(ctx, *anchor); err != nil {
		return err
	}
	if note == "" {
		fmt.Printf("Cleared note on %s\n", anchor.ID)
	} else {
		fmt.Printf("Noted %s\n", anchor.ID)
	}
	return nil
}

// findAnchor looks an anchor up by id across all pages.
func findAnchor(ctx context.Context, store fullStore, id string) (*core.Anchor, error) {
	anchors, err := store.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range anchors {
		if anchors[i].ID == id {
			return &anchors[i], nil
		}
	}
	return nil, fmt.Errorf("anchor %s: %w", id, core.ErrNotFound)
}
