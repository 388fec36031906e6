// Counts over the stored highlights, plus the optional retention
// sweep that drops anchors past the configured age.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var flagCleanup bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show highlight statistics",
	Long: `Stats summarizes the stored highlights: totals, per-color and
per-project counts, and how many carry notes. With --cleanup, anchors
older than the configured retention window are removed first.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&flagCleanup, "cleanup", false, "Remove anchors older than the retention window")
}

func runStats(cmd *cobra.Command, args []string) error {
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

	if flagCleanup {
		cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
		dropped, err := store.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Swept %d highlight(s) older than %d days\n", dropped, cfg.RetentionDays)
	}

	anchors, err := store.All(ctx)
	if err != nil {
		return err
	}

	byColor := map[string]int{}
	byProject := map[string]int{}
	byDomain := map[string]int{}
	withNotes := 0
	for _, a := range anchors {
		byColor[a.Color]++
		byDomain[a.Domain]++
		for _, p := range a.Projects {
			byProject[p]++
		}
		if a.Note != "" {
			withNotes++
		}
	}

	fmt.Printf("Total highlights: %d\n", len(anchors))
	fmt.Printf("With notes:       %d\n", withNotes)
	printCounts("By color", byColor)
	printCounts("By project", byProject)
	printCounts("By domain", byDomain)
	return nil
}

func printCounts(header string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Printf("%s:\n", header)
	for key, n := range counts {
		fmt.Printf("  %-20s %d\n", key, n)
	}
}
