package server

import (
	"fmt"
	"net/http"
	"time"
)

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper for gauge/counter lines.
	// Write errors to http.ResponseWriter are non-actionable; suppress errcheck.
	write := func(name, help, mtype string, value int64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %d\n", name, value)
	}
	writeFloat := func(name, help, mtype string, value float64) {
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		_, _ = fmt.Fprintf(w, "%s %f\n", name, value)
	}

	writeFloat("proctor_uptime_seconds", "Relay uptime in seconds.", "gauge", uptime)

	write("proctor_connections_active", "Current live websocket connections.", "gauge",
		m.ActiveConnections.Load())
	write("proctor_connections_total", "Lifetime websocket connections admitted.", "counter",
		m.TotalConnections.Load())
	write("proctor_disconnects_total", "Total client disconnects.", "counter",
		m.TotalDisconnects.Load())

	write("proctor_auth_success_total", "Handshakes admitted by the gate.", "counter",
		m.SuccessfulAuths.Load())
	write("proctor_auth_failed_total", "Handshakes refused by the gate.", "counter",
		m.FailedAuths.Load())

	write("proctor_sessions_active", "Active sessions with connected members.", "gauge",
		int64(s.registry.Count()))

	candidates, interviewers := s.registry.RoleCounts()
	write("proctor_members_candidates", "Connected candidate memberships.", "gauge", int64(candidates))
	write("proctor_members_interviewers", "Connected interviewer memberships.", "gauge", int64(interviewers))

	write("proctor_events_routed_total", "Inbound events dispatched.", "counter",
		m.EventsRouted.Load())
	write("proctor_joins_total", "Session joins.", "counter",
		m.JoinCount.Load())
	write("proctor_leaves_total", "Session leaves, explicit and disconnect.", "counter",
		m.LeaveCount.Load())
	write("proctor_detection_events_total", "Detection events accepted.", "counter",
		m.DetectionEvents.Load())
	write("proctor_alerts_delivered_total", "Alerts delivered to interviewers.", "counter",
		m.AlertsDelivered.Load())
	write("proctor_manual_flags_total", "Interviewer flags broadcast.", "counter",
		m.ManualFlags.Load())
	write("proctor_control_updates_total", "Status/control/recording broadcasts.", "counter",
		m.ControlUpdates.Load())

	write("proctor_signals_relayed_total", "WebRTC signaling messages forwarded.", "counter",
		m.SignalsRelayed.Load())
	write("proctor_signals_dropped_total", "WebRTC signaling messages with no live target.", "counter",
		m.SignalsDropped.Load())
}
