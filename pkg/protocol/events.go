package protocol

import (
	"encoding/json"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
)

// JoinSession asks to enter a session under a role slot. Role may be omitted,
// in which case it is derived from the authenticated principal.
type JoinSession struct {
	SessionID string `json:"sessionId"`
	Role      string `json:"role,omitempty"`
	UserID    string `json:"userId,omitempty"`
}

// LeaveSession asks to leave a session.
type LeaveSession struct {
	SessionID string `json:"sessionId"`
}

// ConnectedUsers is the canonical membership snapshot for one session. Both
// role lists are sorted by user id so every recipient sees an identical,
// authoritative view regardless of delivery order.
type ConnectedUsers struct {
	Candidates   []model.Participant `json:"candidates"`
	Interviewers []model.Participant `json:"interviewers"`
}

// SessionJoined confirms a join to the joiner and announces it to the room.
type SessionJoined struct {
	SessionID      string         `json:"sessionId"`
	Role           string         `json:"role"`
	UserID         string         `json:"userId"`
	ConnectedUsers ConnectedUsers `json:"connectedUsers"`
}

// SessionLeft announces a departure together with the updated snapshot.
type SessionLeft struct {
	SessionID      string         `json:"sessionId"`
	UserID         string         `json:"userId"`
	ConnectedUsers ConnectedUsers `json:"connectedUsers"`
}

// DetectionEvent is a proctoring observation reported by the candidate client.
// Timestamps are opaque client strings (ISO 8601 in practice) and are relayed
// untouched.
type DetectionEvent struct {
	SessionID   string         `json:"sessionId"`
	CandidateID string         `json:"candidateId"`
	EventType   string         `json:"eventType"`
	Timestamp   string         `json:"timestamp"`
	Confidence  float64        `json:"confidence"`
	Duration    *float64       `json:"duration,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Alert is the interviewer-facing enrichment of a detection event.
type Alert struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"sessionId"`
	CandidateID string         `json:"candidateId"`
	EventType   string         `json:"eventType"`
	Timestamp   string         `json:"timestamp"`
	Confidence  float64        `json:"confidence"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Message     string         `json:"message"`
	Severity    string         `json:"severity"`
}

// ManualFlag is an interviewer-raised incident on the running session.
type ManualFlag struct {
	ID            string `json:"id,omitempty"`
	SessionID     string `json:"sessionId"`
	InterviewerID string `json:"interviewerId"`
	Timestamp     string `json:"timestamp"`
	FlagType      string `json:"flagType"`
	Description   string `json:"description"`
	Severity      string `json:"severity"`
}

// Signal carries WebRTC offer/answer/ICE payloads between peers. ToUserID may
// be the sentinel "interviewer" to address every interviewer in the session.
type Signal struct {
	SessionID  string          `json:"sessionId"`
	FromUserID string          `json:"fromUserId,omitempty"`
	ToUserID   string          `json:"toUserId"`
	Payload    json.RawMessage `json:"payload"`
}

// ToInterviewers is the Signal.ToUserID sentinel addressing all interviewer
// connections in the session.
const ToInterviewers = "interviewer"

// StreamEvent marks the start/stop of a candidate video stream, or carries a
// recorded chunk.
type StreamEvent struct {
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Chunk     json.RawMessage `json:"chunk,omitempty"`
}

// StatusUpdate reports a session status change from an interviewer client.
type StatusUpdate struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ControlRequest is an interviewer session or recording control action.
type ControlRequest struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ControlUpdate is the canonical room broadcast for any control or status
// change.
type ControlUpdate struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Heartbeat is the periodic server liveness broadcast.
type Heartbeat struct {
	Timestamp    string `json:"timestamp"`
	ServerUptime int64  `json:"serverUptime"` // seconds
}

// Ping/Pong carry an optional client timestamp for RTT measurement.
type Ping struct {
	Timestamp string `json:"timestamp,omitempty"`
}

type Pong struct {
	Timestamp string `json:"timestamp,omitempty"`
}

// ErrorPayload is sent only to the offending connection.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
