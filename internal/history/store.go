// Package history records sessions and handled utterances in SQLite so
// `voxterm log` can show what was heard and what was typed.
package history

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	db *sql.DB
}

// Session is one recorded voxterm run.
type Session struct {
	ID        string
	Agent     string
	StartedAt time.Time
	EndedAt   *time.Time
	ExitCode  *int
}

// Utterance is one handled voice input within a session.
type Utterance struct {
	ID        int64
	SessionID string
	Heard     string
	Command   string
	Action    string
	CreatedAt time.Time
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		var applied int
		err := s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", f, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", f, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", f, err)
		}
	}
	return nil
}

// StartSession records a new session.
func (s *Store) StartSession(id, agent string) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, agent) VALUES (?, ?)`, id, agent)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EndSession records the child's exit.
func (s *Store) EndSession(id string, exitCode int) error {
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = ?, exit_code = ? WHERE id = ?`,
		time.Now().UTC(), exitCode, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

// RecordUtterance logs one handled voice input.
func (s *Store) RecordUtterance(sessionID, heard, command, action string) error {
	_, err := s.db.Exec(`INSERT INTO utterances (session_id, heard, command, action) VALUES (?, ?, ?, ?)`,
		sessionID, heard, command, action)
	if err != nil {
		return fmt.Errorf("record utterance: %w", err)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, agent, started_at, ended_at, exit_code
		FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Agent, &sess.StartedAt, &sess.EndedAt, &sess.ExitCode); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Utterances returns a session's utterances in arrival order.
func (s *Store) Utterances(sessionID string) ([]Utterance, error) {
	rows, err := s.db.Query(`SELECT id, session_id, heard, command, action, created_at
		FROM utterances WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list utterances: %w", err)
	}
	defer rows.Close()
	var utts []Utterance
	for rows.Next() {
		var u Utterance
		var command sql.NullString
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Heard, &command, &u.Action, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan utterance: %w", err)
		}
		u.Command = command.String
		utts = append(utts, u)
	}
	return utts, rows.Err()
}
