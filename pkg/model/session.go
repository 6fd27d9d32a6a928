package model

import "time"

// SessionStatus is the durable lifecycle state of an interview session.
type SessionStatus string

const (
	StatusScheduled  SessionStatus = "scheduled"
	StatusInProgress SessionStatus = "in_progress"
	StatusPaused     SessionStatus = "paused"
	StatusCompleted  SessionStatus = "completed"
	StatusTerminated SessionStatus = "terminated"
)

// Valid returns true for a recognised session status.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusPaused, StatusCompleted, StatusTerminated:
		return true
	}
	return false
}

// StatusForControlAction maps a live control action to the durable status it
// implies. ok is false for actions with no status side effect.
func StatusForControlAction(action string) (status SessionStatus, ok bool) {
	switch action {
	case "start", "resume":
		return StatusInProgress, true
	case "pause":
		return StatusPaused, true
	case "end":
		return StatusCompleted, true
	case "terminate":
		return StatusTerminated, true
	}
	return "", false
}

// SessionRecord is the durable session row held by the session store.
// Sessions are created ahead of the interview with a provisional candidate id,
// so a live candidate's user id is not required to match CandidateID.
type SessionRecord struct {
	ID          string        `json:"id"`
	CandidateID string        `json:"candidateId"`
	Position    string        `json:"position"`
	Status      SessionStatus `json:"status"`
	Recording   bool          `json:"recording"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
