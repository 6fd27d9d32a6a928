package server

import (
	"time"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
)

// startHeartbeat launches the fixed-interval server-wide liveness broadcast.
// It runs independent of request traffic so idle peers can tell a live server
// from a stalled one, and stops when the server context is cancelled.
func (s *Server) startHeartbeat() {
	go func() {
		ticker := time.NewTicker(s.cfg.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.broadcastHeartbeat()
			}
		}
	}()
}

func (s *Server) broadcastHeartbeat() {
	frame, err := protocol.Encode(protocol.EventHeartbeat, protocol.Heartbeat{
		Timestamp:    nowISO(),
		ServerUptime: int64(time.Since(s.metrics.startTime).Seconds()),
	})
	if err != nil {
		return
	}
	s.directory.Each(func(c *Conn) {
		c.Send(frame)
	})
}
