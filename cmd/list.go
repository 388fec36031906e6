// Dashboard-style listing of stored highlights with project, color and
// free-text filters.

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/spf13/cobra"
)

var (
	flagListProject string
	flagListColor   string
	flagListSearch  string
	flagListURL     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored highlights",
	Long: `List prints stored highlights, newest first, with optional filters.
The search filter matches highlight text and notes.

Examples:
  pagemark list
  pagemark list --project Work --color yellow
  pagemark list --search "quarterly numbers"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&flagListProject, "project", "", "Only highlights in this project")
	listCmd.Flags().StringVar(&flagListColor, "color", "", "Only highlights with this color")
	listCmd.Flags().StringVar(&flagListSearch, "search", "", "Only highlights whose text or note contains this")
	listCmd.Flags().StringVar(&flagListURL, "url", "", "Only highlights on this page")
}

func runList(cmd *cobra.Command, args []string) error {
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
	var anchors []core.Anchor
	if flagListURL != "" {
		anchors, err = store.GetAnchorsForURL(ctx, flagListURL)
	} else {
		anchors, err = store.All(ctx)
	}
	if err != nil {
		return err
	}

	shown := 0
	for _, a := range anchors {
		if !matchAnchor(a) {
			continue
		}
		shown++
		printAnchor(a)
	}
	fmt.Printf("%d highlight(s)\n", shown)
	return nil
}

func matchAnchor(a core.Anchor) bool {
	if flagListProject != "" && !hasProject(a, flagListProject) {
		return false
	}
	if flagListColor != "" && a.Color != flagListColor {
		return false
	}
	if flagListSearch != "" {
		needle := strings.ToLower(flagListSearch)
		if !strings.Contains(strings.ToLower(a.Text), needle) &&
			!strings.Contains(strings.ToLower(a.Note), needle) {
			return false
		}
	}
	return true
}

func hasProject(a core.Anchor, project string) bool {
	for _, p := range a.Projects {
		if p == project {
			return true
		}
	}
	return false
}

func printAnchor(a core.Anchor) {
	text := a.Text
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	fmt.Printf("%s  [%s]  %q\n", a.ID, a.Color, text)
	fmt.Printf("    %s  (%s)  projects: %s\n", a.URL, a.Timestamp, strings.Join(a.Projects, ", "))
	if a.Note != "" {
		fmt.Printf("    note: %s\n", a.Note)
	}
}
