// Package audit persists a log of every dispatched command. Writes are
// fire-and-forget: a slow or broken log never blocks actuation.
package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS command_log (
	id TEXT PRIMARY KEY,
	logged_at TEXT NOT NULL,
	username TEXT NOT NULL,
	command TEXT NOT NULL,
	value TEXT NOT NULL,
	success INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_log_logged_at ON command_log(logged_at);
`

type Entry struct {
	ID       string
	LoggedAt time.Time
	Username string
	Command  string
	Value    string
	Success  bool
}

// Logger writes entries to sqlite from a single background goroutine.
type Logger struct {
	db      *sql.DB
	entries chan Entry
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the audit database and starts the writer.
func Open(path string) (*Logger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	l := &Logger{
		db:      db,
		entries: make(chan Entry, 256),
		done:    make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Record queues one audit entry. It never blocks: if the queue is full
// the entry is dropped with a warning.
func (l *Logger) Record(username, command, value string, success bool) {
	entry := Entry{
		ID:       uuid.NewString(),
		LoggedAt: time.Now().UTC(),
		Username: username,
		Command:  command,
		Value:    value,
		Success:  success,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		slog.Warn("Audit logger closed, dropping entry", "username", username, "command", command)
		return
	}

	select {
	case l.entries <- entry:
	default:
		slog.Warn("Audit queue full, dropping entry", "username", username, "command", command)
	}
}

// Recent returns the newest n entries, newest first.
func (l *Logger) Recent(n int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, logged_at, username, command, value, success
		 FROM command_log ORDER BY logged_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var loggedAt string
		if err := rows.Scan(&e.ID, &loggedAt, &e.Username, &e.Command, &e.Value, &e.Success); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.LoggedAt, _ = time.Parse(time.RFC3339Nano, loggedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close stops accepting entries, drains the queue, and closes the
// database. Sessions may still be finishing a command during shutdown,
// so Record after Close is a dropped entry, not a panic. Idempotent.
func (l *Logger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.entries)
	l.mu.Unlock()

	<-l.done
	return l.db.Close()
}

func (l *Logger) run() {
	defer close(l.done)
	for entry := range l.entries {
		_, err := l.db.Exec(
			`INSERT INTO command_log (id, logged_at, username, command, value, success) VALUES (?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.LoggedAt.Format(time.RFC3339Nano), entry.Username, entry.Command, entry.Value, entry.Success)
		if err != nil {
			slog.Warn("Failed to write audit entry", "error", err.Error(), "command", entry.Command)
		}
	}
}
