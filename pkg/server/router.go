package server

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/rbac"
)

// handleEvent dispatches one inbound event. Any error — including a handler
// panic — is converted into an error event to the sender only; it never
// crashes the connection or affects siblings.
func (s *Server) handleEvent(c *Conn, env protocol.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("event handler panic", "event", env.Event, "user", c.principal.UserID,
				"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
			c.sendError(protocol.CodeInternal, "internal error")
		}
	}()

	s.metrics.EventsRouted.Add(1)

	switch env.Event {
	case protocol.EventJoinSession:
		s.handleJoinSession(c, env)
	case protocol.EventLeaveSession:
		s.handleLeaveSession(c, env)
	case protocol.EventDetection:
		s.handleDetectionEvent(c, env)
	case protocol.EventManualFlag:
		s.handleManualFlag(c, env)
	case protocol.EventStatusUpdate:
		s.handleStatusUpdate(c, env)
	case protocol.EventSessionControl:
		s.handleSessionControl(c, env)
	case protocol.EventRecordingControl:
		s.handleRecordingControl(c, env)
	case protocol.EventStreamOffer, protocol.EventStreamAnswer, protocol.EventStreamICE:
		s.handleSignal(c, env)
	case protocol.EventStreamStart, protocol.EventStreamStop:
		s.handleStreamMark(c, env)
	case protocol.EventStreamData:
		s.handleStreamData(c, env)
	case protocol.EventPing:
		s.handlePing(c, env)
	default:
		c.sendError(protocol.CodeValidation, "unknown event: "+env.Event)
	}
}

func (s *Server) handleJoinSession(c *Conn, env protocol.Envelope) {
	var req protocol.JoinSession
	if err := protocol.DecodePayload(env, &req); err != nil || req.SessionID == "" {
		c.sendError(protocol.CodeValidation, "join_session requires sessionId")
		return
	}

	// Existence check against the durable store, outside any registry lock.
	ctx, cancel := s.storeCtx()
	rec, err := s.store.Get(ctx, req.SessionID)
	cancel()
	if err != nil {
		slog.Error("session lookup failed", "session", req.SessionID, "err", err)
		c.sendError(protocol.CodeInternal, "session lookup failed")
		return
	}
	if rec == nil {
		c.sendError(protocol.CodeSessionNotFound, "session not found: "+req.SessionID)
		return
	}

	// Resolve the requested role slot; default to what the principal's own
	// role implies. Any authenticated candidate may take the candidate slot
	// of an existing session: records are created with provisional candidate
	// ids before a real account exists, so exact-id matching is deliberately
	// not enforced.
	slot := model.RoleCandidate
	if c.principal.Role != model.RoleCandidate {
		slot = model.RoleInterviewer
	}
	if req.Role != "" {
		slot = model.ParseRole(req.Role)
		if slot == model.RoleAdmin {
			slot = model.RoleInterviewer
		}
	}
	if msg := rbac.RequirePermission(c.principal.Role, rbac.JoinPermission(slot)); msg != "" {
		c.sendError(protocol.CodeUnauthorized, msg)
		return
	}

	p := model.Participant{
		UserID:      c.principal.UserID,
		Email:       c.principal.Email,
		Name:        c.principal.Name,
		Role:        slot.String(),
		ConnectedAt: s.registry.now(),
	}
	snap := s.registry.Join(req.SessionID, p)
	s.metrics.JoinCount.Add(1)

	// One canonical snapshot to the joiner and, unchanged, to the rest of
	// the room. Nobody needs to diff deltas to stay correct.
	s.broadcastToSession(req.SessionID, protocol.EventSessionJoined, protocol.SessionJoined{
		SessionID:      req.SessionID,
		Role:           slot.String(),
		UserID:         c.principal.UserID,
		ConnectedUsers: snap,
	})
	slog.Info("session joined", "session", req.SessionID, "user", c.principal.UserID, "role", slot)

	go func() {
		ctx, cancel := s.storeCtx()
		defer cancel()
		if err := s.store.Touch(ctx, req.SessionID); err != nil {
			slog.Warn("session touch failed", "session", req.SessionID, "err", err)
		}
	}()
}

func (s *Server) handleLeaveSession(c *Conn, env protocol.Envelope) {
	var req protocol.LeaveSession
	if err := protocol.DecodePayload(env, &req); err != nil || req.SessionID == "" {
		c.sendError(protocol.CodeValidation, "leave_session requires sessionId")
		return
	}

	removed, snap := s.registry.Leave(req.SessionID, c.principal.UserID)
	if !removed {
		return
	}
	s.metrics.LeaveCount.Add(1)
	s.broadcastToSession(req.SessionID, protocol.EventSessionLeft, protocol.SessionLeft{
		SessionID:      req.SessionID,
		UserID:         c.principal.UserID,
		ConnectedUsers: snap,
	})
	slog.Info("session left", "session", req.SessionID, "user", c.principal.UserID)
}

// handleDisconnect reclaims every piece of state the connection held. It runs
// on transport close and must never let one teardown disturb other
// connections or the process.
func (s *Server) handleDisconnect(c *Conn) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("disconnect cleanup panic", "user", c.principal.UserID,
				"panic", fmt.Sprint(rec), "stack", string(debug.Stack()))
		}
	}()

	c.Close()
	s.metrics.ActiveConnections.Add(-1)
	s.metrics.TotalDisconnects.Add(1)

	if !s.directory.Unregister(c) {
		// Superseded by a newer connection for the same user; that handle
		// now owns the memberships.
		slog.Debug("stale connection closed", "user", c.principal.UserID)
		return
	}

	for _, left := range s.registry.LeaveAll(c.principal.UserID) {
		s.metrics.LeaveCount.Add(1)
		s.broadcastToSession(left.SessionID, protocol.EventSessionLeft, protocol.SessionLeft{
			SessionID:      left.SessionID,
			UserID:         c.principal.UserID,
			ConnectedUsers: left.Snapshot,
		})
	}
	slog.Info("client disconnected", "user", c.principal.UserID, "remote", c.remote)
}

func (s *Server) handleDetectionEvent(c *Conn, env protocol.Envelope) {
	var ev protocol.DetectionEvent
	if err := protocol.DecodePayload(env, &ev); err != nil || ev.SessionID == "" || ev.EventType == "" {
		c.sendError(protocol.CodeValidation, "detection_event requires sessionId and eventType")
		return
	}

	if !s.registry.Has(ev.SessionID) {
		c.sendError(protocol.CodeSessionNotFound, "no active session: "+ev.SessionID)
		return
	}
	s.metrics.DetectionEvents.Add(1)

	// Raw event to the rest of the room.
	s.broadcastToSession(ev.SessionID, protocol.EventDetectionBroadcast, ev, c.principal.UserID)

	// Enriched alert pushed individually to each interviewer connection, so
	// alert UIs receive it regardless of the room broadcast path.
	alert := protocol.Alert{
		ID:          uuid.NewString(),
		SessionID:   ev.SessionID,
		CandidateID: ev.CandidateID,
		EventType:   ev.EventType,
		Timestamp:   ev.Timestamp,
		Confidence:  ev.Confidence,
		Metadata:    ev.Metadata,
		Message:     alertMessage(ev.EventType, ev.Metadata),
		Severity:    severityFor(ev.EventType),
	}
	delivered := s.sendToInterviewers(ev.SessionID, protocol.EventAlert, alert)
	s.metrics.AlertsDelivered.Add(int64(delivered))
	if delivered == 0 {
		// Delivery loss is not the candidate's fault; still success.
		slog.Warn("no interviewer connected for alert", "session", ev.SessionID, "type", ev.EventType)
	}
}

func (s *Server) handleManualFlag(c *Conn, env protocol.Envelope) {
	var flag protocol.ManualFlag
	if err := protocol.DecodePayload(env, &flag); err != nil || flag.SessionID == "" {
		c.sendError(protocol.CodeValidation, "manual_flag requires sessionId")
		return
	}

	if !s.authorizeInterviewer(c, flag.SessionID, rbac.PermRaiseFlag) {
		return
	}

	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	flag.InterviewerID = c.principal.UserID
	if flag.Timestamp == "" {
		flag.Timestamp = nowISO()
	}
	s.metrics.ManualFlags.Add(1)

	// Entire room including the sender, so every interviewer UI converges.
	s.broadcastToSession(flag.SessionID, protocol.EventManualFlagBcast, flag)
	slog.Info("manual flag raised", "session", flag.SessionID, "by", c.principal.UserID, "type", flag.FlagType)
}

func (s *Server) handleStatusUpdate(c *Conn, env protocol.Envelope) {
	var upd protocol.StatusUpdate
	if err := protocol.DecodePayload(env, &upd); err != nil || upd.SessionID == "" || upd.Status == "" {
		c.sendError(protocol.CodeValidation, "session_status_update requires sessionId and status")
		return
	}
	if !s.authorizeInterviewer(c, upd.SessionID, rbac.PermSessionControl) {
		return
	}

	if status := model.SessionStatus(upd.Status); status.Valid() {
		s.mirrorStatus(upd.SessionID, status)
	}
	s.broadcastControlUpdate(upd.SessionID, upd.Status)
}

func (s *Server) handleSessionControl(c *Conn, env protocol.Envelope) {
	var req protocol.ControlRequest
	if err := protocol.DecodePayload(env, &req); err != nil || req.SessionID == "" {
		c.sendError(protocol.CodeValidation, "interviewer_session_control requires sessionId")
		return
	}
	status, ok := model.StatusForControlAction(req.Action)
	if !ok {
		c.sendError(protocol.CodeValidation, "unknown control action: "+req.Action)
		return
	}
	if !s.authorizeInterviewer(c, req.SessionID, rbac.PermSessionControl) {
		return
	}

	s.mirrorStatus(req.SessionID, status)
	s.broadcastControlUpdate(req.SessionID, req.Action)
	slog.Info("session control", "session", req.SessionID, "action", req.Action, "by", c.principal.UserID)
}

func (s *Server) handleRecordingControl(c *Conn, env protocol.Envelope) {
	var req protocol.ControlRequest
	if err := protocol.DecodePayload(env, &req); err != nil || req.SessionID == "" {
		c.sendError(protocol.CodeValidation, "interviewer_recording_control requires sessionId")
		return
	}
	if req.Action != "start_recording" && req.Action != "stop_recording" {
		c.sendError(protocol.CodeValidation, "unknown recording action: "+req.Action)
		return
	}
	if !s.authorizeInterviewer(c, req.SessionID, rbac.PermRecordingControl) {
		return
	}

	recording := req.Action == "start_recording"
	go func() {
		ctx, cancel := s.storeCtx()
		defer cancel()
		if err := s.store.SetRecording(ctx, req.SessionID, recording); err != nil {
			slog.Error("recording mirror failed", "session", req.SessionID, "err", err)
		}
	}()
	s.broadcastControlUpdate(req.SessionID, req.Action)
	slog.Info("recording control", "session", req.SessionID, "action", req.Action, "by", c.principal.UserID)
}

func (s *Server) handlePing(c *Conn, env protocol.Envelope) {
	var ping protocol.Ping
	if len(env.Data) > 0 {
		_ = protocol.DecodePayload(env, &ping)
	}
	c.sendEvent(protocol.EventPong, protocol.Pong{Timestamp: ping.Timestamp})
}

// authorizeInterviewer enforces the shared rule for privileged per-session
// actions: the sender must hold the permission and currently occupy the
// interviewer slot of the target session.
func (s *Server) authorizeInterviewer(c *Conn, sessionID string, perm rbac.Permission) bool {
	if msg := rbac.RequirePermission(c.principal.Role, perm); msg != "" {
		c.sendError(protocol.CodeUnauthorized, msg)
		return false
	}
	if !s.registry.IsInterviewer(sessionID, c.principal.UserID) {
		c.sendError(protocol.CodeUnauthorized, "not an interviewer in session "+sessionID)
		return false
	}
	return true
}

// mirrorStatus records a status change in the durable store. Store failure is
// logged and never blocks the live broadcast.
func (s *Server) mirrorStatus(sessionID string, status model.SessionStatus) {
	go func() {
		ctx, cancel := s.storeCtx()
		defer cancel()
		if err := s.store.UpdateStatus(ctx, sessionID, status); err != nil {
			slog.Error("status mirror failed", "session", sessionID, "status", status, "err", err)
		}
	}()
}

func (s *Server) broadcastControlUpdate(sessionID, kind string) {
	s.metrics.ControlUpdates.Add(1)
	s.broadcastToSession(sessionID, protocol.EventControlUpdate, protocol.ControlUpdate{
		SessionID: sessionID,
		Type:      kind,
		Timestamp: nowISO(),
	})
}

// severityFor maps a detection event type to an alert severity.
func severityFor(eventType string) string {
	switch eventType {
	case "focus-loss":
		return "medium"
	case "absence", "multiple-faces", "unauthorized-item":
		return "high"
	default:
		return "low"
	}
}

// alertMessage renders a human-readable alert line from the event type and
// its metadata.
func alertMessage(eventType string, metadata map[string]any) string {
	switch eventType {
	case "focus-loss":
		if dir, ok := metadataString(metadata, "gazeDirection"); ok {
			return fmt.Sprintf("Candidate looked away (%s)", dir)
		}
		return "Candidate looked away"
	case "absence":
		return "Candidate absent from frame"
	case "multiple-faces":
		if n, ok := metadataNumber(metadata, "faceCount"); ok {
			return fmt.Sprintf("Multiple faces detected (%d)", int(n))
		}
		return "Multiple faces detected"
	case "unauthorized-item":
		if item, ok := metadataString(metadata, "itemType"); ok {
			return fmt.Sprintf("Unauthorized item detected (%s)", item)
		}
		return "Unauthorized item detected"
	default:
		return "Detection event: " + eventType
	}
}

func metadataString(md map[string]any, key string) (string, bool) {
	v, ok := md[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func metadataNumber(md map[string]any, key string) (float64, bool) {
	v, ok := md[key]
	if !ok {
		return 0, false
	}
	n, ok := v.(float64) // encoding/json decodes numbers as float64
	return n, ok
}
