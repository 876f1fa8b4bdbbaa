package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cv_leads (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	company    TEXT NOT NULL DEFAULT '',
	locale     TEXT NOT NULL,
	source     TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cv_leads_email ON cv_leads(email);
`

// SQLiteStore persists leads in a local SQLite file for development deployments.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// ":memory:" is supported; the pool is limited to one connection so it stays a single database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("leads: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leads: configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leads: apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, lead Lead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cv_leads (id, name, email, company, locale, source, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.Name, lead.Email, lead.Company, lead.Locale, lead.Source, lead.UserAgent,
		lead.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("leads: insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Lead, error) {
	var (
		lead    Lead
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, company, locale, source, user_agent, created_at FROM cv_leads WHERE id = ?`, id,
	).Scan(&lead.ID, &lead.Name, &lead.Email, &lead.Company, &lead.Locale, &lead.Source, &lead.UserAgent, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("leads: query: %w", err)
	}
	lead.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Lead{}, fmt.Errorf("leads: parse created_at: %w", err)
	}
	return lead, nil
}

// Count returns the number of stored leads.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cv_leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("leads: count: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
