// Package protocol defines the JSON wire contract spoken over the websocket.
//
// Every frame is a text message holding an Envelope: the event name plus a
// typed payload. Event names are the interop surface shared with the browser
// clients and must not change.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxMessageSize is the maximum inbound frame size in bytes. Video chunks are
// the largest legitimate frames; anything bigger is a protocol violation.
const MaxMessageSize = 512 * 1024

// Client-to-server event names.
const (
	EventJoinSession      = "join_session"
	EventLeaveSession     = "leave_session"
	EventDetection        = "detection_event"
	EventManualFlag       = "manual_flag"
	EventStreamStart      = "video_stream_start"
	EventStreamStop       = "video_stream_stop"
	EventStreamData       = "video_stream_data"
	EventStreamOffer      = "video_stream_offer"
	EventStreamAnswer     = "video_stream_answer"
	EventStreamICE        = "video_stream_ice_candidate"
	EventStatusUpdate     = "session_status_update"
	EventSessionControl   = "interviewer_session_control"
	EventRecordingControl = "interviewer_recording_control"
	EventPing             = "ping"
)

// Server-to-client event names.
const (
	EventSessionJoined      = "session_joined"
	EventSessionLeft        = "session_left"
	EventDetectionBroadcast = "detection_event_broadcast"
	EventAlert              = "alert"
	EventManualFlagBcast    = "manual_flag_broadcast"
	EventControlUpdate      = "session_control_update"
	EventHeartbeat          = "heartbeat"
	EventPong               = "pong"
	EventError              = "error"
)

// Error codes carried by the error event.
const (
	CodeMissingToken    = "MISSING_TOKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

var ErrMissingEvent = errors.New("protocol: envelope missing event name")

// Envelope is the outer frame: an event name and its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event and payload into a wire frame.
func Encode(event string, payload any) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal %s payload: %w", event, err)
		}
		data = b
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s envelope: %w", event, err)
	}
	return frame, nil
}

// Decode parses a wire frame into an Envelope.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: parse envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// DecodePayload parses an envelope's payload into the given struct.
func DecodePayload(env Envelope, dst any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("protocol: %s: empty payload", env.Event)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("protocol: %s: parse payload: %w", env.Event, err)
	}
	return nil
}
