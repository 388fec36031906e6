// Package snapshot maintains a local HTML mirror of pages that carry
// highlights. Restoration runs against either the live page or its
// snapshot; filenames are derived from the page URL so a URL always
// maps to the same file.
package snapshot

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Writer reads and writes page snapshots under one directory.
type Writer struct {
	Dir string
}

// New creates a Writer rooted at dir, creating it if needed. An empty
// dir defaults to the current working directory.
func New(dir string) (*Writer, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// Path returns the snapshot file path for a URL.
func (w *Writer) Path(rawURL string) string {
	return filepath.Join(w.Dir, filenameFromURL(rawURL)+".html")
}

// Write stores the page HTML for a URL, replacing any prior snapshot.
func (w *Writer) Write(rawURL string, html []byte) (string, error) {
	path := w.Path(rawURL)
	if err := os.WriteFile(path, html, 0644); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return path, nil
}

// Read loads the snapshot for a URL. os.ErrNotExist when the page was
// never snapshotted.
func (w *Writer) Read(rawURL string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(rawURL))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s: %w", rawURL, err)
	}
	return data, nil
}

// CanonicalURL strips fragments and trailing slashes so the same page
// always keys the same snapshot and anchor partition.
func CanonicalURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Fragment = ""
	if parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}
	return parsed.String()
}

// filenameFromURL converts a URL into a flat filename.
// Example: https://example.com/docs/intro → example_com_docs_intro
func filenameFromURL(rawURL string) string {
	parsed, err := url.Parse(CanonicalURL(rawURL))
	if err != nil {
		return sanitize(rawURL)
	}

	parts := []string{sanitize(parsed.Host)}
	path := strings.Trim(parsed.Path, "/")
	if path != "" {
		for _, seg := range strings.Split(path, "/") {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
