package server

import (
	"log/slog"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
)

// handleSignal relays WebRTC offer/answer/ICE messages. The sender identity
// is always stamped from the authenticated connection; a client-supplied
// fromUserId is never trusted.
func (s *Server) handleSignal(c *Conn, env protocol.Envelope) {
	var sig protocol.Signal
	if err := protocol.DecodePayload(env, &sig); err != nil || sig.SessionID == "" || sig.ToUserID == "" {
		c.sendError(protocol.CodeValidation, env.Event+" requires sessionId and toUserId")
		return
	}
	sig.FromUserID = c.principal.UserID

	if sig.ToUserID == protocol.ToInterviewers {
		sent := s.sendToInterviewers(sig.SessionID, env.Event, sig, c.principal.UserID)
		s.metrics.SignalsRelayed.Add(int64(sent))
		return
	}

	// Transient disconnects during negotiation are expected; a missing peer
	// is a silent drop, not an error.
	target, ok := s.directory.Get(sig.ToUserID)
	if !ok {
		s.metrics.SignalsDropped.Add(1)
		slog.Debug("signal dropped, peer offline", "event", env.Event, "to", sig.ToUserID)
		return
	}
	if target.sendEvent(env.Event, sig) {
		s.metrics.SignalsRelayed.Add(1)
	}
}

// handleStreamMark relays video_stream_start/stop to the rest of the room.
func (s *Server) handleStreamMark(c *Conn, env protocol.Envelope) {
	var ev protocol.StreamEvent
	if err := protocol.DecodePayload(env, &ev); err != nil || ev.SessionID == "" {
		c.sendError(protocol.CodeValidation, env.Event+" requires sessionId")
		return
	}
	ev.UserID = c.principal.UserID
	if ev.Timestamp == "" {
		ev.Timestamp = nowISO()
	}
	s.broadcastToSession(ev.SessionID, env.Event, ev, c.principal.UserID)
}

// handleStreamData forwards recorded chunks to interviewer connections only;
// other candidates have no use for them.
func (s *Server) handleStreamData(c *Conn, env protocol.Envelope) {
	var ev protocol.StreamEvent
	if err := protocol.DecodePayload(env, &ev); err != nil || ev.SessionID == "" {
		c.sendError(protocol.CodeValidation, env.Event+" requires sessionId")
		return
	}
	ev.UserID = c.principal.UserID
	s.sendToInterviewers(ev.SessionID, env.Event, ev, c.principal.UserID)
}
