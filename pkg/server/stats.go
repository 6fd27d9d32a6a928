package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks relay runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime websocket connections admitted
	ActiveConnections atomic.Int64 // current live connections
	SuccessfulAuths   atomic.Int64 // handshakes admitted by the gate
	FailedAuths       atomic.Int64 // handshakes refused by the gate
	TotalDisconnects  atomic.Int64 // total disconnects (clean + unclean)

	// Routing counters
	EventsRouted    atomic.Int64 // inbound events dispatched
	JoinCount       atomic.Int64 // session joins
	LeaveCount      atomic.Int64 // session leaves (explicit + disconnect)
	DetectionEvents atomic.Int64 // detection events accepted
	AlertsDelivered atomic.Int64 // enriched alerts delivered to interviewers
	ManualFlags     atomic.Int64 // interviewer flags broadcast
	ControlUpdates  atomic.Int64 // status/control/recording broadcasts

	// Signaling counters
	SignalsRelayed atomic.Int64 // WebRTC messages forwarded
	SignalsDropped atomic.Int64 // WebRTC messages with no live target
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a serializable
// struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	SuccessfulAuths   int64 `json:"successful_auths"`
	FailedAuths       int64 `json:"failed_auths"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	EventsRouted    int64 `json:"events_routed"`
	JoinCount       int64 `json:"join_count"`
	LeaveCount      int64 `json:"leave_count"`
	DetectionEvents int64 `json:"detection_events"`
	AlertsDelivered int64 `json:"alerts_delivered"`
	ManualFlags     int64 `json:"manual_flags"`
	ControlUpdates  int64 `json:"control_updates"`

	SignalsRelayed int64 `json:"signals_relayed"`
	SignalsDropped int64 `json:"signals_dropped"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		SuccessfulAuths:   m.SuccessfulAuths.Load(),
		FailedAuths:       m.FailedAuths.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		EventsRouted:      m.EventsRouted.Load(),
		JoinCount:         m.JoinCount.Load(),
		LeaveCount:        m.LeaveCount.Load(),
		DetectionEvents:   m.DetectionEvents.Load(),
		AlertsDelivered:   m.AlertsDelivered.Load(),
		ManualFlags:       m.ManualFlags.Load(),
		ControlUpdates:    m.ControlUpdates.Load(),
		SignalsRelayed:    m.SignalsRelayed.Load(),
		SignalsDropped:    m.SignalsDropped.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"events", s.EventsRouted,
		"detections", s.DetectionEvents,
		"alerts", s.AlertsDelivered,
		"signals", s.SignalsRelayed,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
