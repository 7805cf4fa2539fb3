// Package export writes a queryable index of a built site.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/sitetree"
)

// PageRow is one row of the pages table.
type PageRow struct {
	URL         string
	ParentURL   string
	Title       string
	Slug        string
	Date        time.Time
	Description string
	Author      string
}

// SQLiteIndex stores pages, taxonomy terms, classifications and menu entries
// of the latest build in SQLite.
type SQLiteIndex struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteIndex opens or creates an index at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteIndex(dbPath string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	idx := &SQLiteIndex{db: db}
	if err := idx.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		parent_url TEXT,
		title TEXT NOT NULL,
		slug TEXT NOT NULL,
		date INTEGER,
		description TEXT,
		author TEXT
	);
	CREATE TABLE IF NOT EXISTS terms (
		url TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS classifications (
		term_url TEXT NOT NULL,
		page_url TEXT NOT NULL,
		PRIMARY KEY (term_url, page_url)
	);
	CREATE TABLE IF NOT EXISTS menu_items (
		owner_url TEXT NOT NULL,
		position INTEGER NOT NULL,
		target_url TEXT NOT NULL,
		PRIMARY KEY (owner_url, position)
	);
	CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_url);
	CREATE INDEX IF NOT EXISTS idx_classifications_page ON classifications(page_url);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Write replaces the index contents with the given tree in one transaction.
func (s *SQLiteIndex) Write(ctx context.Context, root *sitetree.Page, registry *sitetree.Registry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"pages", "terms", "classifications", "menu_items"} {
		// #nosec G202 -- table names come from the fixed list above
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	err = root.Walk(func(p *sitetree.Page) error {
		if err := insertPage(ctx, tx, p); err != nil {
			return err
		}
		for i, ref := range p.MenuRefs() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO menu_items (owner_url, position, target_url) VALUES (?, ?, ?)",
				p.URL(), i, ref,
			); err != nil {
				return fmt.Errorf("insert menu item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	terms := registry.Terms()
	for _, t := range registry.Types() {
		if list := registry.ListPage(t); list != nil {
			if err := insertPage(ctx, tx, list); err != nil {
				return err
			}
		}
		for _, term := range terms[t] {
			info, _ := term.Term()
			if err := insertPage(ctx, tx, term); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO terms (url, type, value) VALUES (?, ?, ?)",
				term.URL(), info.Type.Plural, info.Value,
			); err != nil {
				return fmt.Errorf("insert term: %w", err)
			}
			for _, page := range term.Children() {
				if _, err := tx.ExecContext(ctx,
					"INSERT OR IGNORE INTO classifications (term_url, page_url) VALUES (?, ?)",
					term.URL(), page.URL(),
				); err != nil {
					return fmt.Errorf("insert classification: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertPage(ctx context.Context, tx *sql.Tx, p *sitetree.Page) error {
	var parentURL sql.NullString
	if parent := p.Parent(); parent != nil {
		parentURL = sql.NullString{String: parent.URL(), Valid: true}
	}
	var date sql.NullInt64
	if p.HasDate() {
		date = sql.NullInt64{Int64: p.Date().Unix(), Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO pages (url, parent_url, title, slug, date, description, author) VALUES (?, ?, ?, ?, ?, ?, ?)",
		p.URL(), parentURL, p.Title(), p.Slug(), date, p.Description(), p.Author(),
	)
	if err != nil {
		return fmt.Errorf("insert page %q: %w", p.URL(), err)
	}
	return nil
}

// Pages returns every indexed page ordered by URL.
func (s *SQLiteIndex) Pages(ctx context.Context) ([]PageRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT url, parent_url, title, slug, date, description, author FROM pages ORDER BY url",
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var r PageRow
		var parentURL sql.NullString
		var date sql.NullInt64
		var description, author sql.NullString
		if err := rows.Scan(&r.URL, &parentURL, &r.Title, &r.Slug, &date, &description, &author); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		r.ParentURL = parentURL.String
		r.Description = description.String
		r.Author = author.String
		if date.Valid {
			r.Date = time.Unix(date.Int64, 0).UTC()
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// ClassifiedPages returns the URLs of pages classified under termURL.
func (s *SQLiteIndex) ClassifiedPages(ctx context.Context, termURL string) ([]string, error) {
	return s.strings(ctx, "SELECT page_url FROM classifications WHERE term_url = ? ORDER BY page_url", termURL)
}

// MenuTargets returns the menu references of ownerURL in declaration order.
func (s *SQLiteIndex) MenuTargets(ctx context.Context, ownerURL string) ([]string, error) {
	return s.strings(ctx, "SELECT target_url FROM menu_items WHERE owner_url = ? ORDER BY position", ownerURL)
}

func (s *SQLiteIndex) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
