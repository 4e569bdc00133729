package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bookit-dev/bookit/internal/store"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// path is a filesystem path to the database file; use ":memory:" for an
// in-memory database.
type DB struct {
	db *sql.DB
}

func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS appointments(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			starts_at TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_starts_at ON appointments(starts_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Create(ctx context.Context, a store.Appointment) (store.Appointment, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO appointments(title, starts_at, notes, created_at) VALUES(?, ?, ?, ?);`,
		a.Title, a.StartsAt.UTC(), a.Notes, a.CreatedAt)
	if err != nil {
		return store.Appointment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.Appointment{}, err
	}
	a.ID = id
	return a, nil
}

func (s *DB) List(ctx context.Context) ([]store.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, starts_at, notes, created_at FROM appointments ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []store.Appointment
	for rows.Next() {
		var a store.Appointment
		if err := rows.Scan(&a.ID, &a.Title, &a.StartsAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *DB) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM appointments;`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *DB) Close() error { return s.db.Close() }
