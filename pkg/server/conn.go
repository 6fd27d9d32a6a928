package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
)

const (
	// writeWait is the deadline for a single outbound frame write.
	writeWait = 10 * time.Second

	// pongWait bounds how long a connection may stay silent before the read
	// loop gives up on it.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Conn is one authenticated websocket connection. Outbound frames go through
// a buffered queue drained by a single writer goroutine; Send never blocks,
// so one slow peer cannot stall a broadcast to its siblings.
type Conn struct {
	principal model.Principal
	sock      *websocket.Conn // nil in tests that only exercise the queue
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	remote    string
	joinedAt  time.Time
}

func newConn(sock *websocket.Conn, principal model.Principal, buffer int) *Conn {
	remote := ""
	if sock != nil {
		remote = sock.RemoteAddr().String()
	}
	return &Conn{
		principal: principal,
		sock:      sock,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		remote:    remote,
		joinedAt:  time.Now().UTC(),
	}
}

// Principal returns the identity attached at handshake time.
func (c *Conn) Principal() model.Principal {
	return c.principal
}

// Send enqueues a frame without blocking. A full queue drops the frame; the
// peer recovers from the next authoritative snapshot.
func (c *Conn) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("outbound queue full, dropping frame", "user", c.principal.UserID, "remote", c.remote)
		return false
	}
}

// sendEvent marshals and enqueues one event.
func (c *Conn) sendEvent(event string, payload any) bool {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		slog.Error("encode event failed", "event", event, "err", err)
		return false
	}
	return c.Send(frame)
}

// sendError reports a per-event failure to this connection only.
func (c *Conn) sendError(code, message string) {
	c.sendEvent(protocol.EventError, protocol.ErrorPayload{Code: code, Message: message})
}

// Close shuts the connection down. Safe to call from any goroutine, any
// number of times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sock != nil {
			_ = c.sock.Close()
		}
	})
}

// writePump drains the outbound queue onto the socket and keeps the
// websocket-level ping/pong alive. It is the connection's only writer.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump processes inbound frames in transport-delivery order. It returns
// when the peer goes away; the caller owns disconnect cleanup.
func (c *Conn) readPump(s *Server) {
	defer c.Close()

	c.sock.SetReadLimit(protocol.MaxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("read error", "user", c.principal.UserID, "err", err)
			}
			return
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			c.sendError(protocol.CodeValidation, "malformed event envelope")
			continue
		}
		s.handleEvent(c, env)
	}
}
