package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for an unknown snapshot id.
var ErrNotFound = errors.New("mapping snapshot not found")

// Snapshot describes one stored table.
type Snapshot struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	Entries   int    `json:"entries"`
	CreatedAt int64  `json:"created_at"`
}

// Store persists immutable mapping snapshots in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the snapshot database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open mapping store: %w", err)
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS mapping_snapshots (
		id          TEXT PRIMARY KEY,
		label       TEXT NOT NULL DEFAULT '',
		entries     INTEGER NOT NULL,
		created_at  INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mapping_entries (
		snapshot_id            TEXT NOT NULL REFERENCES mapping_snapshots(id) ON DELETE CASCADE,
		original               TEXT NOT NULL,
		standardized           TEXT NOT NULL,
		state                  TEXT NOT NULL DEFAULT '',
		confidence             TEXT NOT NULL,
		source                 TEXT NOT NULL,
		player_count           INTEGER NOT NULL DEFAULT 0,
		canonical_player_count INTEGER NOT NULL DEFAULT 0,
		common_name            INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_mapping_entries_snapshot ON mapping_entries(snapshot_id);`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mapping tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores t under a new id.
func (s *Store) Save(ctx context.Context, t *Table, label string) (string, error) {
	id := uuid.NewString()
	entries := t.Entries()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mapping_snapshots (id, label, entries, created_at) VALUES (?, ?, ?, ?)`,
		id, label, len(entries), time.Now().UnixMilli(),
	); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO mapping_entries
		(snapshot_id, original, standardized, state, confidence, source,
		 player_count, canonical_player_count, common_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, e.Original, e.Standardized, e.State,
			string(e.Confidence), string(e.Source),
			e.PlayerCount, e.CanonicalPlayerCount, e.CommonName,
		); err != nil {
			return "", fmt.Errorf("insert entry %q: %w", e.Original, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

// Load returns the table stored under id.
func (s *Store) Load(ctx context.Context, id string) (*Table, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT entries FROM mapping_snapshots WHERE id = ?`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT original, standardized, state, confidence, source,
		player_count, canonical_player_count, common_name
		FROM mapping_entries WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load entries %s: %w", id, err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		var conf, src string
		if err := rows.Scan(&e.Original, &e.Standardized, &e.State, &conf, &src,
			&e.PlayerCount, &e.CanonicalPlayerCount, &e.CommonName); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Confidence, e.Source = Confidence(conf), Source(src)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewTable(entries)
}

// Latest returns the most recently saved snapshot id.
func (s *Store) Latest(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM mapping_snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("latest snapshot: %w", err)
	}
	return id, nil
}

// List returns snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, entries, created_at FROM mapping_snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Label, &s.Entries, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a snapshot and its entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mapping_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
