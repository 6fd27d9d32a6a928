package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
)

func TestSignalStampsSenderIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	sender := connect(t, srv, "cand-1", model.RoleCandidate)
	target := connect(t, srv, "int-1", model.RoleInterviewer)

	srv.handleEvent(sender, mustEnvelope(t, protocol.EventStreamOffer, protocol.Signal{
		SessionID:  "sess-1",
		FromUserID: "spoofed",
		ToUserID:   "int-1",
		Payload:    json.RawMessage(`{"sdp":"v=0"}`),
	}))

	envs := drainEvents(t, target)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.EventStreamOffer, envs[0].Event)
	sig := decodeAs[protocol.Signal](t, envs[0])
	require.Equal(t, "cand-1", sig.FromUserID)
	require.JSONEq(t, `{"sdp":"v=0"}`, string(sig.Payload))
}

func TestSignalInterviewerFanOut(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	i1 := connect(t, srv, "int-1", model.RoleInterviewer)
	i2 := connect(t, srv, "int-2", model.RoleInterviewer)
	cand := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, i1, "sess-1")
	join(t, srv, i2, "sess-1")
	join(t, srv, cand, "sess-1")
	drainEvents(t, i1)
	drainEvents(t, i2)

	srv.handleEvent(cand, mustEnvelope(t, protocol.EventStreamICE, protocol.Signal{
		SessionID: "sess-1",
		ToUserID:  protocol.ToInterviewers,
		Payload:   json.RawMessage(`{"candidate":"c"}`),
	}))

	for _, c := range []*Conn{i1, i2} {
		envs := drainEvents(t, c)
		require.Len(t, envs, 1)
		require.Equal(t, protocol.EventStreamICE, envs[0].Event)
	}
	require.Empty(t, drainEvents(t, cand))
}

func TestSignalToOfflinePeerDroppedSilently(t *testing.T) {
	srv, _ := newTestServer(t)
	sender := connect(t, srv, "cand-1", model.RoleCandidate)
	before := srv.metrics.SignalsDropped.Load()

	srv.handleEvent(sender, mustEnvelope(t, protocol.EventStreamAnswer, protocol.Signal{
		SessionID: "sess-1",
		ToUserID:  "gone",
		Payload:   json.RawMessage(`{}`),
	}))

	require.Empty(t, drainEvents(t, sender))
	require.Equal(t, before+1, srv.metrics.SignalsDropped.Load())
}

func TestSignalWithoutTargetRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	sender := connect(t, srv, "cand-1", model.RoleCandidate)

	srv.handleEvent(sender, mustEnvelope(t, protocol.EventStreamOffer, protocol.Signal{SessionID: "sess-1"}))

	envs := drainEvents(t, sender)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.CodeValidation, decodeAs[protocol.ErrorPayload](t, envs[0]).Code)
}

func TestStreamMarkBroadcastsToRoom(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	interviewer := connect(t, srv, "int-1", model.RoleInterviewer)
	cand := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, interviewer, "sess-1")
	join(t, srv, cand, "sess-1")
	drainEvents(t, interviewer)
	drainEvents(t, cand)

	srv.handleEvent(cand, mustEnvelope(t, protocol.EventStreamStart, protocol.StreamEvent{SessionID: "sess-1"}))

	envs := drainEvents(t, interviewer)
	require.Len(t, envs, 1)
	ev := decodeAs[protocol.StreamEvent](t, envs[0])
	require.Equal(t, "cand-1", ev.UserID)
	require.NotEmpty(t, ev.Timestamp)
	require.Empty(t, drainEvents(t, cand))
}

func TestStreamDataReachesInterviewersOnly(t *testing.T) {
	srv, st := newTestServer(t)
	seedSession(t, st, "sess-1")

	interviewer := connect(t, srv, "int-1", model.RoleInterviewer)
	c1 := connect(t, srv, "cand-1", model.RoleCandidate)
	join(t, srv, interviewer, "sess-1")
	join(t, srv, c1, "sess-1")
	drainEvents(t, interviewer)
	drainEvents(t, c1)

	srv.handleEvent(c1, mustEnvelope(t, protocol.EventStreamData, protocol.StreamEvent{
		SessionID: "sess-1",
		Chunk:     json.RawMessage(`"AAAA"`),
	}))

	envs := drainEvents(t, interviewer)
	require.Len(t, envs, 1)
	require.Equal(t, protocol.EventStreamData, envs[0].Event)
	require.Empty(t, drainEvents(t, c1))
}
