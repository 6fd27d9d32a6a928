package sessionstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// MemoryStore provides an in-memory Store implementation for tests.
// It mirrors SQLite behavior for validation and error handling.
type MemoryStore struct {
	mu sync.RWMutex

	now func() time.Time

	sessions map[string]*model.SessionRecord
}

// NewMemory creates a MemoryStore using time.Now().UTC().
func NewMemory() *MemoryStore {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock creates a MemoryStore with a custom clock.
func NewMemoryWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		now:      now,
		sessions: make(map[string]*model.SessionRecord),
	}
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Create inserts a new session record.
func (s *MemoryStore) Create(_ context.Context, rec *model.SessionRecord) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[rec.ID]; exists {
		return fmt.Errorf("sessionstore: create session: constraint failed: UNIQUE constraint failed: sessions.id")
	}
	now := s.now().UTC().Truncate(time.Second)
	stored := *rec
	stored.Status = status
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.sessions[rec.ID] = &stored
	return nil
}

// Get retrieves a session by ID. Returns (nil, nil) if not found.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	copyRec := *rec
	return &copyRec, nil
}

// List returns all session records ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]model.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]model.SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		result = append(result, *rec)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateStatus changes a session's durable status.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.SessionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("sessionstore: update status: invalid status %q", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("sessionstore: session %s: %w", id, model.ErrSessionNotFound)
	}
	rec.Status = status
	rec.UpdatedAt = s.now().UTC().Truncate(time.Second)
	return nil
}

// SetRecording flips the recording flag for a session.
func (s *MemoryStore) SetRecording(_ context.Context, id string, recording bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("sessionstore: session %s: %w", id, model.ErrSessionNotFound)
	}
	rec.Recording = recording
	rec.UpdatedAt = s.now().UTC().Truncate(time.Second)
	return nil
}

// Touch updates a session's updated_at timestamp.
func (s *MemoryStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("sessionstore: session %s: %w", id, model.ErrSessionNotFound)
	}
	rec.UpdatedAt = s.now().UTC().Truncate(time.Second)
	return nil
}
