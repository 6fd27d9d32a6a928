// Package sessionstore provides persistence for interview session records.
package sessionstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

const dbTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore provides SQLite-backed session persistence.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database and runs migrations.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: open db: %w", err)
	}

	ctx := context.Background()

	// Enable WAL mode for better concurrent read performance
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sessionstore: set WAL: %w", err)
	}
	// Set busy timeout to avoid "database is locked" under concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sessionstore: set busy_timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sessionstore: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT    PRIMARY KEY,
		candidate_id TEXT    NOT NULL DEFAULT '',
		position     TEXT    NOT NULL DEFAULT '',
		status       TEXT    NOT NULL DEFAULT 'scheduled',
		recording    INTEGER NOT NULL DEFAULT 0,
		created_at   TEXT    NOT NULL DEFAULT (datetime('now')),
		updated_at   TEXT    NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Create inserts a new session record.
func (s *SQLiteStore) Create(ctx context.Context, rec *model.SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("sessionstore: create: empty session id")
	}
	status := rec.Status
	if status == "" {
		status = model.StatusScheduled
	}
	if !status.Valid() {
		return fmt.Errorf("sessionstore: create: invalid status %q", status)
	}
	now := time.Now().UTC().Format(dbTimeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, candidate_id, position, status, recording, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CandidateID, rec.Position, string(status), boolToInt(rec.Recording), now, now)
	if err != nil {
		return fmt.Errorf("sessionstore: create session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID. Returns (nil, nil) if not found.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, candidate_id, position, status, recording, created_at, updated_at
		 FROM sessions WHERE id = ?`, id)
	rec, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sessionstore: get session: %w", err)
	}
	return rec, nil
}

// List returns all session records ordered by creation time.
func (s *SQLiteStore) List(ctx context.Context) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, candidate_id, position, status, recording, created_at, updated_at
		 FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sessionstore: list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []model.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("sessionstore: scan session: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionstore: list sessions: %w", err)
	}
	return result, nil
}

// UpdateStatus changes a session's durable status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status model.SessionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("sessionstore: update status: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(dbTimeLayout), id)
	if err != nil {
		return fmt.Errorf("sessionstore: update status: %w", err)
	}
	return requireRow(res, id)
}

// SetRecording flips the recording flag for a session.
func (s *SQLiteStore) SetRecording(ctx context.Context, id string, recording bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET recording = ?, updated_at = ? WHERE id = ?`,
		boolToInt(recording), time.Now().UTC().Format(dbTimeLayout), id)
	if err != nil {
		return fmt.Errorf("sessionstore: set recording: %w", err)
	}
	return requireRow(res, id)
}

// Touch updates a session's updated_at timestamp.
func (s *SQLiteStore) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(dbTimeLayout), id)
	if err != nil {
		return fmt.Errorf("sessionstore: touch session: %w", err)
	}
	return requireRow(res, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	var status string
	var recording int
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.CandidateID, &rec.Position, &status, &recording, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Status = model.SessionStatus(status)
	rec.Recording = recording != 0
	rec.CreatedAt, _ = time.Parse(dbTimeLayout, createdAt)
	rec.UpdatedAt, _ = time.Parse(dbTimeLayout, updatedAt)
	return &rec, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sessionstore: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sessionstore: session %s: %w", id, model.ErrSessionNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
