package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id         TEXT PRIMARY KEY,
	seed       TEXT NOT NULL,
	complete   INTEGER NOT NULL,
	room_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	body       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS layouts_created_at ON layouts (created_at DESC);
`

// SQLiteStore keeps all layouts in a single SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create schema")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save implements [Store].
func (s *SQLiteStore) Save(ctx context.Context, l *layout.Layout) (string, error) {
	if l == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "save: layout is nil")
	}
	if l.ID != "" {
		if err := errors.ValidateLayoutID(l.ID); err != nil {
			return "", err
		}
	}

	rec := newRecord(l, s.now())
	body, err := json.Marshal(rec.Layout)
	if err != nil {
		return "", fmt.Errorf("encode layout: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (id, seed, complete, room_count, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			seed = excluded.seed,
			complete = excluded.complete,
			room_count = excluded.room_count,
			created_at = excluded.created_at,
			body = excluded.body`,
		l.ID, l.Seed, l.Complete, rec.RoomCount, rec.CreatedAt.UnixNano(), body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStorage, err, "save layout %s", l.ID)
	}
	return l.ID, nil
}

// Load implements [Store].
func (s *SQLiteStore) Load(ctx context.Context, id string) (*layout.Layout, error) {
	if err := errors.ValidateLayoutID(id); err != nil {
		return nil, err
	}

	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM layouts WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeLayoutNotFound, "layout %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}

	var l layout.Layout
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode layout %s", id)
	}
	return &l, nil
}

// List implements [Store].
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, complete, room_count, created_at
		FROM layouts ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sum Summary
		var created int64
		if err := rows.Scan(&sum.ID, &sum.Seed, &sum.Complete, &sum.Rooms, &created); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan layout")
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list layouts")
	}
	return out, nil
}

// Delete implements [Store].
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateLayoutID(id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete layout %s", id)
	}
	return nil
}

// Close implements [Store].
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
