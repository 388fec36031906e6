// Package config loads PageMark's YAML configuration: the project
// list, per-project color schemes, active projects, storage paths and
// engine timings. Missing file or missing fields fall back to the
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/similarity"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Projects       []string                    `yaml:"projects"`
	ActiveProjects []string                    `yaml:"active_projects"`
	ColorSchemes   map[string]core.ColorScheme `yaml:"color_schemes"`

	StorePath   string `yaml:"store_path"`
	SnapshotDir string `yaml:"snapshot_dir"`

	RetentionDays  int        `yaml:"retention_days"`
	MatchThreshold float64    `yaml:"match_threshold"`
	Quiescence     Quiescence `yaml:"quiescence"`
}

// Quiescence holds the page-stability wait timings.
type Quiescence struct {
	QuietPeriod time.Duration `yaml:"quiet_period"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// UnmarshalYAML parses the timings from duration strings ("500ms",
// "5s"), which yaml does not do for time.Duration on its own.
func (q *Quiescence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		QuietPeriod string `yaml:"quiet_period"`
		MaxWait     string `yaml:"max_wait"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.QuietPeriod != "" {
		d, err := time.ParseDuration(raw.QuietPeriod)
		if err != nil {
			return fmt.Errorf("quiet_period: %w", err)
		}
		q.QuietPeriod = d
	}
	if raw.MaxWait != "" {
		d, err := time.ParseDuration(raw.MaxWait)
		if err != nil {
			return fmt.Errorf("max_wait: %w", err)
		}
		q.MaxWait = d
	}
	return nil
}

// Default returns the configuration used when no file exists: three
// projects with their own eight-color labelings.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".pagemark")
	return &Config{
		Projects:       []string{"Personal", "Work", "Research"},
		ActiveProjects: []string{"Personal"},
		ColorSchemes: map[string]core.ColorScheme{
			"Personal": {
				"yellow": "Important", "green": "Ideas", "blue": "To Research",
				"pink": "Fun", "orange": "Action Items", "red": "Urgent",
				"purple": "Questions", "gray": "Notes",
			},
			"Work": {
				"yellow": "Action Items", "green": "Client Feedback", "blue": "Meeting Notes",
				"pink": "Follow Up", "orange": "Important", "red": "Urgent",
				"purple": "Questions", "gray": "Reference",
			},
			"Research": {
				"yellow": "Key Findings", "green": "Hypotheses", "blue": "Data",
				"pink": "Insights", "orange": "To Investigate", "red": "Critical",
				"purple": "Questions", "gray": "Background",
			},
		},
		StorePath:      filepath.Join(base, "anchors.db"),
		SnapshotDir:    filepath.Join(base, "pages"),
		RetentionDays:  365,
		MatchThreshold: similarity.DefaultThreshold,
		Quiescence: Quiescence{
			QuietPeriod: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
		},
	}
}

// Load reads the configuration at path, layered over the defaults. A
// missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Scheme returns the color scheme for a project, falling back to the
// first active project's scheme and then to any scheme at all.
func (c *Config) Scheme(project string) core.ColorScheme {
	if s, ok := c.ColorSchemes[project]; ok {
		return s
	}
	for _, p := range c.ActiveProjects {
		if s, ok := c.ColorSchemes[p]; ok {
			return s
		}
	}
	for _, s := range c.ColorSchemes {
		return s
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Projects) == 0 {
		return fmt.Errorf("projects must not be empty")
	}
	if len(c.ActiveProjects) == 0 {
		return fmt.Errorf("active_projects must not be empty")
	}
	for _, p := range c.ActiveProjects {
		if !contains(c.Projects, p) {
			return fmt.Errorf("active project %q is not in projects", p)
		}
	}
	if c.Quiescence.QuietPeriod <= 0 {
		c.Quiescence.QuietPeriod = 500 * time.Millisecond
	}
	if c.Quiescence.MaxWait <= 0 {
		c.Quiescence.MaxWait = 5 * time.Second
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 365
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = similarity.DefaultThreshold
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
