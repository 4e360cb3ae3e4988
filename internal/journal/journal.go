// Package journal keeps a local, append-only history of applied mutations in a
// sqlite database next to the task document.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// Entry is one applied mutation.
type Entry struct {
	ID      string    `json:"id"`
	TS      time.Time `json:"ts"`
	Action  string    `json:"action"`
	IDs     []int     `json:"ids"`
	Summary string    `json:"summary"`
}

// Journal is an open history database.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// PathFor returns the journal location for a task document.
func PathFor(docPath string) string {
	ext := filepath.Ext(docPath)
	return strings.TrimSuffix(docPath, ext) + ".history.sqlite"
}

func Open(ctx context.Context, path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal: missing path")
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, path: path, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			entry_id TEXT PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			action TEXT NOT NULL,
			ids_json TEXT NOT NULL,
			summary TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_ts ON entries(ts_unixms);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Path() string { return j.path }

// Append records one entry and returns it with its generated id and timestamp.
func (j *Journal) Append(ctx context.Context, action string, ids []int, summary string) (Entry, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return Entry{}, errors.New("journal: missing action")
	}
	if ids == nil {
		ids = []int{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:      uuid.NewString(),
		TS:      j.now().UTC(),
		Action:  action,
		IDs:     ids,
		Summary: summary,
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO entries(entry_id, ts_unixms, action, ids_json, summary) VALUES(?, ?, ?, ?, ?)`,
		e.ID, e.TS.UnixMilli(), e.Action, string(idsJSON), e.Summary,
	)
	if err != nil {
		return Entry{}, err
	}
	e.TS = time.UnixMilli(e.TS.UnixMilli()).UTC()
	return e, nil
}

// Tail returns up to limit most recent entries, oldest first. limit <= 0 returns all.
func (j *Journal) Tail(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT entry_id, ts_unixms, action, ids_json, summary FROM entries ORDER BY ts_unixms DESC, rowid DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = j.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			tsMs    int64
			idsJSON string
		)
		if err := rows.Scan(&e.ID, &tsMs, &e.Action, &idsJSON, &e.Summary); err != nil {
			return nil, err
		}
		e.TS = time.UnixMilli(tsMs).UTC()
		if err := json.Unmarshal([]byte(idsJSON), &e.IDs); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
