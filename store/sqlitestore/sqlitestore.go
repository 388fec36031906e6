// Package sqlitestore is the durable AnchorStore: one sqlite database
// of anchors, partitioned by page URL. It also owns the retention
// sweep the engine deliberately knows nothing about.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gaurav-prasanna/pagemark/core"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS anchors (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	domain     TEXT NOT NULL,
	title      TEXT NOT NULL,
	text       TEXT NOT NULL,
	color      TEXT NOT NULL,
	context    TEXT,
	projects   TEXT NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anchors_url ON anchors(url);
`

// Store is a sqlite-backed AnchorStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the anchor database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening anchor database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing anchor schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// GetAnchorsForURL returns the anchors stored for a page, oldest first.
func (s *Store) GetAnchorsForURL(ctx context.Context, url string) ([]core.Anchor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, domain, title, text, color, context, projects, note, created_at
		 FROM anchors WHERE url = ? ORDER BY created_at`, url)
	if err != nil {
		return nil, fmt.Errorf("querying anchors for %s: %w", url, err)
	}
	defer rows.Close()
	return scanAnchors(rows)
}

// AppendAnchor stores a new anchor.
func (s *Store) AppendAnchor(ctx context.Context, a core.Anchor) error {
	if err := a.Validate(nil); err != nil {
		return err
	}
	contextJSON, projectsJSON, err := encode(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO anchors (id, url, domain, title, text, color, context, projects, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.URL, a.Domain, a.Title, a.Text, a.Color, contextJSON, projectsJSON, a.Note, a.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting anchor %s: %w", a.ID, err)
	}
	return nil
}

// UpdateAnchor replaces the stored anchor with the same id.
func (s *Store) UpdateAnchor(ctx context.Context, a core.Anchor) error {
	if err := a.Validate(nil); err != nil {
		return err
	}
	contextJSON, projectsJSON, err := encode(a)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE anchors SET url = ?, domain = ?, title = ?, text = ?, color = ?,
		        context = ?, projects = ?, note = ?, created_at = ?
		 WHERE id = ?`,
		a.URL, a.Domain, a.Title, a.Text, a.Color, contextJSON, projectsJSON, a.Note, a.Timestamp, a.ID)
	if err != nil {
		return fmt.Errorf("updating anchor %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating anchor %s: %w", a.ID, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// RemoveAnchor deletes an anchor by id. Removing an unknown id is a
// no-op.
func (s *Store) RemoveAnchor(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM anchors WHERE id = ?`, id); err != nil {
		return fmt.Errorf("removing anchor %s: %w", id, err)
	}
	return nil
}

// All returns every stored anchor, newest first.
func (s *Store) All(ctx context.Context) ([]core.Anchor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, domain, title, text, color, context, projects, note, created_at
		 FROM anchors ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying anchors: %w", err)
	}
	defer rows.Close()
	return scanAnchors(rows)
}

// DeleteOlderThan removes anchors created before the cutoff and
// returns how many were dropped. This is the store-level retention
// sweep; the engine never sees it.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM anchors WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("sweeping old anchors: %w", err)
	}
	return res.RowsAffected()
}

func encode(a core.Anchor) (contextJSON sql.NullString, projectsJSON string, err error) {
	if a.Context != nil {
		data, err := json.Marshal(a.Context)
		if err != nil {
			return sql.NullString{}, "", fmt.Errorf("encoding context for %s: %w", a.ID, err)
		}
		contextJSON = sql.NullString{String: string(data), Valid: true}
	}
	data, err := json.Marshal(a.Projects)
	if err != nil {
		return sql.NullString{}, "", fmt.Errorf("encoding projects for %s: %w", a.ID, err)
	}
	return contextJSON, string(data), nil
}

func scanAnchors(rows *sql.Rows) ([]core.Anchor, error) {
	var anchors []core.Anchor
	for rows.Next() {
		var a core.Anchor
		var contextJSON sql.NullString
		var projectsJSON string
		if err := rows.Scan(&a.ID, &a.URL, &a.Domain, &a.Title, &a.Text, &a.Color,
			&contextJSON, &projectsJSON, &a.Note, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning anchor row: %w", err)
		}
		if contextJSON.Valid {
			a.Context = &core.Context{}
			if err := json.Unmarshal([]byte(contextJSON.String), a.Context); err != nil {
				return nil, fmt.Errorf("decoding context for %s: %w", a.ID, err)
			}
		}
		if err := json.Unmarshal([]byte(projectsJSON), &a.Projects); err != nil {
			return nil, fmt.Errorf("decoding projects for %s: %w", a.ID, err)
		}
		anchors = append(anchors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating anchor rows: %w", err)
	}
	return anchors, nil
}
