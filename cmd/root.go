// Package cmd implements the CLI commands for PageMark using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/pagemark/config"
	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pagemark",
	Short: "PageMark — durable highlights for web pages",
	Long: `PageMark anchors color-coded highlights to locations in web pages and
restores them after the page has been reloaded or changed, using a
cascade of matching strategies of increasing tolerance.

Usage:
  pagemark mark <url-or-file> --text "..." [flags]
  pagemark restore <url-or-file> [flags]`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ~/.pagemark/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves and loads the configuration file.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".pagemark", "config.yaml")
	}
	return config.Load(path)
}

// newLogger builds the CLI logger.
func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// fullStore is what the CLI needs beyond the engine's store contract:
// listing across pages for the dashboard-style commands.
type fullStore interface {
	core.AnchorStore
	All(ctx context.Context) ([]core.Anchor, error)
}

// consoleNotifier prints engine outcome messages to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Notify(message string, kind core.NoteKind) {
	switch kind {
	case core.NoteError:
		fmt.Fprintln(os.Stderr, message)
	default:
		fmt.Println(message)
	}
}
