package sessionstore

import (
	"context"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// Store defines the persistence interface for interview session records.
// The relay treats it as an external collaborator: it is consulted for session
// existence on join and mirrors status/recording changes, but never holds the
// relay's in-memory membership state. Implementations include the default
// SQLite store and an in-memory store for tests.
type Store interface {
	// Close closes the underlying storage connection.
	Close() error

	// Create inserts a new session record.
	Create(ctx context.Context, rec *model.SessionRecord) error

	// Get retrieves a session by ID. Returns (nil, nil) if not found.
	Get(ctx context.Context, id string) (*model.SessionRecord, error)

	// List returns all session records.
	List(ctx context.Context) ([]model.SessionRecord, error)

	// UpdateStatus changes a session's durable status.
	UpdateStatus(ctx context.Context, id string, status model.SessionStatus) error

	// SetRecording flips the recording flag for a session.
	SetRecording(ctx context.Context, id string, recording bool) error

	// Touch updates a session's updated_at timestamp.
	Touch(ctx context.Context, id string) error
}

// Compile-time checks: both implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
