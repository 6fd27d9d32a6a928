// Package server implements the realtime proctoring relay.
//
// The relay sits over persistent websocket connections during live
// interviews: it authenticates each connection, tracks who is present in
// which session, fans out detection alerts and WebRTC signaling, and reclaims
// all state on disconnect. Durable session records live in the session store;
// the relay itself never persists messages.
package server

import (
	"context"
	"time"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/sessionstore"
)

// Config holds server configuration.
type Config struct {
	Addr              string        // HTTP bind address for /ws, /api, /metrics (e.g. ":8080")
	DBPath            string        // SQLite session database path
	JWTSecret         string        // HMAC secret used to verify connection tokens
	SeedFile          string        // YAML file defining sessions to create on startup
	HeartbeatInterval time.Duration // server-wide heartbeat broadcast interval
	AllowedOrigins    []string      // websocket origins accepted at upgrade (empty = any)
	SendBuffer        int           // per-connection outbound frame queue length
	StoreTimeout      time.Duration // per-operation budget for session store calls
}

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Store and will Close() it on shutdown.
type Dependencies struct {
	Store sessionstore.Store
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		DBPath:            "proctor.db",
		HeartbeatInterval: 30 * time.Second,
		SendBuffer:        64,
		StoreTimeout:      5 * time.Second,
	}
}

// Server is the relay coordinator. It owns the connection directory and the
// session registry; event handlers receive it by handle, never through
// package globals.
type Server struct {
	cfg       Config
	gate      *ConnectionGate
	directory *ConnectionDirectory
	registry  *SessionRegistry
	metrics   *Metrics
	store     sessionstore.Store
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultConfig().SendBuffer
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultConfig().StoreTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		gate:      NewConnectionGate([]byte(cfg.JWTSecret)),
		directory: NewConnectionDirectory(),
		registry:  NewSessionRegistry(),
		metrics:   NewMetrics(),
		store:     deps.Store,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Registry returns the session registry.
func (s *Server) Registry() *SessionRegistry {
	return s.registry
}

// Directory returns the connection directory.
func (s *Server) Directory() *ConnectionDirectory {
	return s.directory
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// storeCtx returns a bounded context for a session store call. Store latency
// must never leak into registry critical sections, so every store call runs
// outside locks under this budget.
func (s *Server) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.cfg.StoreTimeout)
}

// BroadcastToSession sends an event to every live connection currently in the
// session and returns the number of deliveries attempted. It is the call-in
// surface used by the REST layer.
func (s *Server) BroadcastToSession(sessionID, event string, payload any) int {
	return s.broadcastToSession(sessionID, event, payload)
}

// SendToUser sends an event to the single live connection for a user id.
// Returns false when the user has no live connection.
func (s *Server) SendToUser(userID, event string, payload any) bool {
	c, ok := s.directory.Get(userID)
	if !ok {
		return false
	}
	return c.sendEvent(event, payload)
}

// SessionUsers returns the current membership snapshot for a session, or
// ok=false when the session has no connected members.
func (s *Server) SessionUsers(sessionID string) (protocol.ConnectedUsers, bool) {
	return s.registry.Snapshot(sessionID)
}

// IsUserConnected reports whether a user id has a live connection.
func (s *Server) IsUserConnected(userID string) bool {
	return s.directory.IsConnected(userID)
}

// ServerStats is the aggregate view exposed to the REST layer.
type ServerStats struct {
	TotalConnections      int64 `json:"totalConnections"`
	ActiveSessions        int   `json:"activeSessions"`
	ConnectedCandidates   int   `json:"connectedCandidates"`
	ConnectedInterviewers int   `json:"connectedInterviewers"`
	Uptime                int64 `json:"uptime"` // seconds
}

// Stats returns aggregate connection and session counts.
func (s *Server) Stats() ServerStats {
	candidates, interviewers := s.registry.RoleCounts()
	return ServerStats{
		TotalConnections:      s.metrics.ActiveConnections.Load(),
		ActiveSessions:        s.registry.Count(),
		ConnectedCandidates:   candidates,
		ConnectedInterviewers: interviewers,
		Uptime:                int64(time.Since(s.metrics.startTime).Seconds()),
	}
}

// broadcastToSession fans an event out to every member connection of a
// session except the excluded user ids. Sends are fire-and-forget per
// recipient; a slow or dead peer never blocks the rest.
func (s *Server) broadcastToSession(sessionID, event string, payload any, exclude ...string) int {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return 0
	}
	sent := 0
	for _, userID := range s.registry.MemberIDs(sessionID) {
		if contains(exclude, userID) {
			continue
		}
		if c, ok := s.directory.Get(userID); ok {
			if c.Send(frame) {
				sent++
			}
		}
	}
	return sent
}

// sendToInterviewers delivers an event directly to each interviewer
// connection registered for the session and returns the delivery count.
func (s *Server) sendToInterviewers(sessionID, event string, payload any, exclude ...string) int {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		return 0
	}
	sent := 0
	for _, userID := range s.registry.InterviewerIDs(sessionID) {
		if contains(exclude, userID) {
			continue
		}
		if c, ok := s.directory.Get(userID); ok {
			if c.Send(frame) {
				sent++
			}
		}
	}
	return sent
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
