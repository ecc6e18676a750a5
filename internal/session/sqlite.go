package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turtacn/Protoscribe/pkg/consts"
	perrors "github.com/turtacn/Protoscribe/pkg/errors"
	"github.com/turtacn/Protoscribe/pkg/protocol"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	step          TEXT NOT NULL,
	protocol_json TEXT NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// SQLiteStore keeps snapshots in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path with WAL journaling
// and a busy timeout, then ensures the sessions table exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr("OpenSQLite", "mkdir "+dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr("OpenSQLite", "open "+path, err)
	}
	// One writer keeps WAL contention out of the picture.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, storeErr("OpenSQLite", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storeErr("OpenSQLite", "schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap.Protocol)
	if err != nil {
		return storeErr("Save", "encode protocol", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, step, protocol_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			step = excluded.step,
			protocol_json = excluded.protocol_json,
			updated_at = excluded.updated_at`,
		snap.ID, string(snap.Step), string(body), snap.UpdatedAt.UnixNano())
	if err != nil {
		return storeErr("Save", "upsert "+snap.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Snapshot, error) {
	var (
		step    string
		body    string
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT step, protocol_json, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&step, &body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, notFound("Load", id)
	}
	if err != nil {
		return Snapshot{}, storeErr("Load", "select "+id, err)
	}

	p := protocol.New()
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return Snapshot{}, storeErr("Load", "decode protocol "+id, err)
	}
	return Snapshot{
		ID:        id,
		Step:      consts.Step(step),
		Protocol:  p,
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return storeErr("Delete", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, storeErr("List", "select", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("List", "scan", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storeErr(op, msg string, err error) error {
	return perrors.New(perrors.ErrCodeStoreFailed, op, msg, fmt.Errorf("sqlite: %w", err))
}

// Personal.AI order the ending
