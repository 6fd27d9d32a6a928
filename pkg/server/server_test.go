package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/sessionstore"
)

func newTestServer(t *testing.T) (*Server, *sessionstore.MemoryStore) {
	t.Helper()
	st := sessionstore.NewMemory()
	cfg := DefaultConfig()
	cfg.JWTSecret = "test-secret"
	srv := New(cfg, Dependencies{Store: st})
	return srv, st
}

func newTestConn(userID string, role model.Role) *Conn {
	return newConn(nil, model.Principal{
		UserID: userID,
		Email:  userID + "@example.com",
		Name:   userID,
		Role:   role,
	}, 32)
}

// connect registers a test connection in the directory the way handleWS would.
func connect(t *testing.T, s *Server, userID string, role model.Role) *Conn {
	t.Helper()
	c := newTestConn(userID, role)
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	if prev := s.directory.Register(c); prev != nil {
		prev.Close()
	}
	return c
}

func mustEnvelope(t *testing.T, event string, payload any) protocol.Envelope {
	t.Helper()
	frame, err := protocol.Encode(event, payload)
	require.NoError(t, err)
	env, err := protocol.Decode(frame)
	require.NoError(t, err)
	return env
}

// drainEvents empties a connection's outbound queue.
func drainEvents(t *testing.T, c *Conn) []protocol.Envelope {
	t.Helper()
	var out []protocol.Envelope
	for {
		select {
		case frame := <-c.send:
			env, err := protocol.Decode(frame)
			require.NoError(t, err)
			out = append(out, env)
		default:
			return out
		}
	}
}

func findEvent(envs []protocol.Envelope, name string) (protocol.Envelope, bool) {
	for _, env := range envs {
		if env.Event == name {
			return env, true
		}
	}
	return protocol.Envelope{}, false
}

func decodeAs[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func seedSession(t *testing.T, st *sessionstore.MemoryStore, id string) {
	t.Helper()
	require.NoError(t, st.Create(context.Background(), &model.SessionRecord{
		ID:          id,
		CandidateID: "provisional-" + id,
		Position:    "Backend Engineer",
	}))
}

// join runs the full join_session handler for a connection and returns its
// own session_joined snapshot.
func join(t *testing.T, s *Server, c *Conn, sessionID string) protocol.SessionJoined {
	t.Helper()
	s.handleEvent(c, mustEnvelope(t, protocol.EventJoinSession, protocol.JoinSession{SessionID: sessionID}))
	envs := drainEvents(t, c)
	env, ok := findEvent(envs, protocol.EventSessionJoined)
	require.True(t, ok, "expected session_joined, got %+v", envs)
	return decodeAs[protocol.SessionJoined](t, env)
}

func TestSendToUser(t *testing.T) {
	srv, _ := newTestServer(t)
	c := connect(t, srv, "u1", model.RoleCandidate)

	require.True(t, srv.SendToUser("u1", protocol.EventPong, protocol.Pong{}))
	require.False(t, srv.SendToUser("nobody", protocol.EventPong, protocol.Pong{}))

	envs := drainEvents(t, c)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.EventPong, envs[0].Event)
}

func TestBroadcastToSessionReachesAllMembers(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	interviewer := connect(t, srv, "int-1", model.RoleInterviewer)
	candidate := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, interviewer, "sess-1")
	join(t, srv, candidate, "sess-1")
	drainEvents(t, interviewer)
	drainEvents(t, candidate)

	n := srv.BroadcastToSession("sess-1", protocol.EventHeartbeat, protocol.Heartbeat{Timestamp: "now"})
	require.Equal(t, 2, n)
	require.Len(t, drainEvents(t, interviewer), 1)
	require.Len(t, drainEvents(t, candidate), 1)
}

func TestStats(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	interviewer := connect(t, srv, "int-1", model.RoleInterviewer)
	candidate := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, interviewer, "sess-1")
	join(t, srv, candidate, "sess-1")

	stats := srv.Stats()
	require.Equal(t, int64(2), stats.TotalConnections)
	require.Equal(t, 1, stats.ActiveSessions)
	require.Equal(t, 1, stats.ConnectedCandidates)
	require.Equal(t, 1, stats.ConnectedInterviewers)
	require.GreaterOrEqual(t, stats.Uptime, int64(0))

	require.True(t, srv.IsUserConnected("cand-1"))
	require.False(t, srv.IsUserConnected("ghost"))
}

func TestSessionUsersAfterEviction(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	c := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, c, "sess-1")

	_, ok := srv.SessionUsers("sess-1")
	require.True(t, ok)

	srv.handleEvent(c, mustEnvelope(t, protocol.EventLeaveSession, protocol.LeaveSession{SessionID: "sess-1"}))

	_, ok = srv.SessionUsers("sess-1")
	require.False(t, ok, "empty session must be evicted")
}
