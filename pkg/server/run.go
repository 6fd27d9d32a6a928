package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/model"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/protocol"
	"github.com/arcc-hitt/Video-Interviews-Proctoring-System-sub000/pkg/sessionstore"
)

// Run starts the relay and blocks until a shutdown signal.
func (s *Server) Run() error {
	if s.store == nil {
		return fmt.Errorf("server: missing store dependency")
	}
	if s.cfg.JWTSecret == "" {
		return fmt.Errorf("server: missing JWT secret")
	}
	defer func() { _ = s.store.Close() }()

	if s.cfg.SeedFile != "" {
		ctx, cancel := s.storeCtx()
		err := sessionstore.LoadSeedFile(ctx, s.cfg.SeedFile, s.store)
		cancel()
		if err != nil {
			slog.Error("failed to load session seed file", "err", err)
		}
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("proctoring relay listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.startHeartbeat()
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		s.Shutdown()
		return fmt.Errorf("server: listen: %w", err)
	case <-sigCh:
	}

	slog.Info("shutting down...")
	s.Shutdown()
	_ = srv.Close()
	return nil
}

// Shutdown stops background loops and closes every live connection.
func (s *Server) Shutdown() {
	s.cancel()
	s.directory.Each(func(c *Conn) {
		c.Close()
	})
}

// Routes builds the HTTP surface: the websocket endpoint plus the small
// call-in API consumed by the surrounding REST layer.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWS)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.handleStatsAPI).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/users", s.handleSessionUsersAPI).Methods(http.MethodGet)
	return r
}

// handleWS authenticates and upgrades one websocket connection, then runs its
// read loop until the peer goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	principal, err := s.gate.Admit(r)
	if err != nil {
		s.metrics.FailedAuths.Add(1)
		code := protocol.CodeInvalidToken
		if errors.Is(err, model.ErrMissingToken) {
			code = protocol.CodeMissingToken
		}
		slog.Debug("connection refused", "remote", r.RemoteAddr, "code", code)
		writeJSON(w, http.StatusUnauthorized, protocol.ErrorPayload{Code: code, Message: err.Error()})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(sock, principal, s.cfg.SendBuffer)
	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	s.metrics.SuccessfulAuths.Add(1)

	if prev := s.directory.Register(c); prev != nil {
		// One live connection per user id; the newer handshake wins.
		slog.Info("superseding connection", "user", principal.UserID)
		prev.Close()
	}
	slog.Info("client connected", "user", principal.UserID, "role", principal.Role, "remote", c.remote)

	go c.writePump()
	defer s.handleDisconnect(c)
	c.readPump(s)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser client
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) handleStatsAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Stats())
}

func (s *Server) handleSessionUsersAPI(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	snap, ok := s.SessionUsers(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, protocol.ErrorPayload{
			Code:    protocol.CodeSessionNotFound,
			Message: "no active session: " + sessionID,
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
