// Package journal records every accepted simulation command in SQLite.
//
// A session is its seed plus the ordered list of commands applied to it,
// which is enough to rebuild it deterministically. The default database
// lives in memory and disappears with the process; a directory can be
// configured to keep a file for post-mortem inspection.
package journal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// ErrSessionNotFound is returned for a session the journal never saw.
var ErrSessionNotFound = errors.New("journal: session not found")

const (
	fileName     = "journal.db"
	memoryDSN    = ":memory:"
	timeLayout   = "2006-01-02T15:04:05.000000000Z07:00"
	defaultLimit = 20
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Config controls where the journal lives.
type Config struct {
	// Dir holds journal.db. Empty keeps the journal in memory.
	Dir string
}

// SessionInfo is a journaled session with its command count.
type SessionInfo struct {
	ID        string `json:"id"`
	Seed      int64  `json:"seed"`
	StartedAt string `json:"started_at"`
	Events    int    `json:"events"`
}

// Event is one journaled command.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Seq       int             `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("journal: decode %s event %d: %w", e.Kind, e.Seq, err)
	}
	return nil
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed journal.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens the journal described by cfg and applies the schema.
func New(cfg Config) (*Store, error) {
	dsn := memoryDSN
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
			return nil, fmt.Errorf("journal: create dir: %w", err)
		}
		dsn = filepath.Join(cfg.Dir, fileName)
	}

	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	if cfg.Dir == "" {
		// Every pooled connection to :memory: would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	if cfg.Dir != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// InMemory reports whether the journal is discarded on Close.
func (s *Store) InMemory() bool { return s.cfg.Dir == "" }

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT    PRIMARY KEY,
			seed       INTEGER NOT NULL,
			started_at TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			seq        INTEGER NOT NULL,
			kind       TEXT    NOT NULL,
			payload    TEXT    NOT NULL,
			created_at TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id),
			UNIQUE (session_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// CreateSession records a new session and its seed.
func (s *Store) CreateSession(id string, seed int64) error {
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, seed, started_at) VALUES (?, ?, ?)`,
		id, seed, timeNow().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("journal: create session %s: %w", id, err)
	}
	return nil
}

// Session returns one session, or ErrSessionNotFound.
func (s *Store) Session(id string) (SessionInfo, error) {
	var si SessionInfo
	err := s.db.QueryRow(`
		SELECT s.id, s.seed, s.started_at, COUNT(e.id)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		WHERE s.id = ?
		GROUP BY s.id`, id,
	).Scan(&si.ID, &si.Seed, &si.StartedAt, &si.Events)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, ErrSessionNotFound
	}
	if err != nil {
		return SessionInfo{}, fmt.Errorf("journal: session %s: %w", id, err)
	}
	return si, nil
}

// Sessions lists the most recently started sessions, newest first.
func (s *Store) Sessions(limit int) ([]SessionInfo, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.seed, s.started_at, COUNT(e.id)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []SessionInfo{}
	for rows.Next() {
		var si SessionInfo
		if err := rows.Scan(&si.ID, &si.Seed, &si.StartedAt, &si.Events); err != nil {
			return nil, err
		}
		results = append(results, si)
	}
	return results, rows.Err()
}

// ─── Events ──────────────────────────────────────────────────────────────────

// Append journals one command for sessionID. Payload is stored as JSON.
// Sequence numbers start at 1 and have no gaps.
func (s *Store) Append(sessionID, kind string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("journal: encode %s payload: %w", kind, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Event{}, fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return Event{}, fmt.Errorf("journal: lookup session: %w", err)
	}
	if exists == 0 {
		return Event{}, ErrSessionNotFound
	}

	ev := Event{
		SessionID: sessionID,
		Kind:      kind,
		Payload:   raw,
		CreatedAt: timeNow().UTC().Format(timeLayout),
	}
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE session_id = ?`, sessionID,
	).Scan(&ev.Seq); err != nil {
		return Event{}, fmt.Errorf("journal: next seq: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO events (session_id, seq, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Seq, ev.Kind, string(ev.Payload), ev.CreatedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("journal: insert event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return Event{}, fmt.Errorf("journal: event id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("journal: commit: %w", err)
	}
	return ev, nil
}

// Events returns every command of sessionID in sequence order.
func (s *Store) Events(sessionID string) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, seq, kind, payload, created_at
		FROM events
		WHERE session_id = ?
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var payload string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Seq, &ev.Kind, &payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Payload = json.RawMessage(payload)
		events = append(events, ev)
	}
	return events, rows.Err()
}
