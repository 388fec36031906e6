package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Show projects and their color schemes",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	active := map[string]bool{}
	for _, p := range cfg.ActiveProjects {
		active[p] = true
	}

	for _, project := range cfg.Projects {
		marker := " "
		if active[project] {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, project)

		scheme := cfg.Scheme(project)
		colors := make([]string, 0, len(scheme))
		for color := range scheme {
			colors = append(colors, color)
		}
		sort.Strings(colors)
		for _, color := range colors {
			fmt.Printf("    %-8s %s\n", color, scheme[color])
		}
	}
	fmt.Printf("\n* active (%s)\n", strings.Join(cfg.ActiveProjects, ", "))
	return nil
}
