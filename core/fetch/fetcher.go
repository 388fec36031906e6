// Package fetch retrieves live pages for highlighting: it downloads a
// URL, verifies the response is HTML, and hands back the parsed
// document together with the page identity anchors are keyed by.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	"github.com/gaurav-prasanna/pagemark/core/dom"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "PageMark/1.0 (https://github.com/gaurav-prasanna/pagemark)"

	// maxPageBytes bounds how much of a response is read. Pages past
	// this size are truncated rather than rejected; anchors near the
	// cut simply miss.
	maxPageBytes = 16 << 20
)

// Result is a fetched page: the parsed document, the identity anchors
// are keyed and stored by, and the raw bytes for snapshotting.
type Result struct {
	Doc  *dom.Document
	Info core.PageInfo
	HTML []byte
}

// Fetcher fetches and parses web pages.
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher with a sensible timeout.
func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Fetch downloads rawURL and parses it into a document. The URL must
// carry a host; non-HTML content types and non-2xx statuses are
// rejected. Info.URL is rawURL as given, so callers canonicalize
// before fetching.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	if err := checkContentType(resp.Header.Get("Content-Type"), rawURL); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	doc, err := dom.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", rawURL, err)
	}

	return &Result{
		Doc: doc,
		Info: core.PageInfo{
			URL:    rawURL,
			Domain: parsed.Host,
			Title:  doc.Title(),
		},
		HTML: body,
	}, nil
}

// checkContentType rejects responses that are declared non-HTML. A
// missing or unparseable header passes: plenty of pages omit it.
func checkContentType(header, rawURL string) error {
	if header == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return nil
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return nil
	}
	return fmt.Errorf("content type %s for %s is not a page", mediaType, rawURL)
}
