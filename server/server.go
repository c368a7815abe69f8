// Package server exposes a session controller over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/sessionsync/lifecycle"
	"github.com/malonaz/sessionsync/session"
)

const shutdownTimeout = 5 * time.Second

// Server handles the session API.
type Server struct {
	controller *lifecycle.Controller
	logger     *slog.Logger
	// Timeout of the controller call of a request. Zero disables it.
	timeout time.Duration
}

// New instantiates and returns a new server.
func New(controller *lifecycle.Controller, logger *slog.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		controller: controller,
		logger:     logger,
		timeout:    timeout,
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/sessions/refresh", s.handleRefresh)
	mux.HandleFunc("PUT /api/desired-session", s.handleDesiredSession)
	mux.HandleFunc("POST /api/sessions/{id}/switch", s.handleSwitch)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("PUT /api/session", s.handleSave)
	mux.HandleFunc("POST /api/session/clear", s.handleClear)
	return mux
}

// Start serves on port until ctx is done.
func (s *Server) Start(ctx context.Context, port int) error {
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", httpServer.Addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return errors.Wrap(err, "serving")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) context(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r)
	defer cancel()
	s.controller.RefreshSessions(ctx)
	s.writeJSON(w, http.StatusOK, s.controller.State())
}

type desiredSessionRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleDesiredSession(w http.ResponseWriter, r *http.Request) {
	request := &desiredSessionRequest{}
	if !s.decode(w, r, request) {
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	if err := s.controller.ReactToDesiredSessionChange(ctx, request.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.State())
}

func (s *Server) handleSwitch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx, cancel := s.context(r)
	defer cancel()
	content, err := s.controller.SwitchSession(ctx, id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if content == nil {
		state := s.controller.State()
		if state.CurrentSessionID != id || state.CurrentSession == nil {
			s.writeError(w, http.StatusNotFound, errors.Wrapf(session.ErrNotFound, "session '%s'", id))
			return
		}
		content = state.CurrentSession.Content()
	}
	s.writeJSON(w, http.StatusOK, content)
}

type saveRequest struct {
	Data         *session.SaveData `json:"data"`
	ForSessionID string            `json:"forSessionId"`
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	request := &saveRequest{}
	if !s.decode(w, r, request) {
		return
	}
	if request.Data == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("data is required"))
		return
	}
	ctx, cancel := s.context(r)
	defer cancel()
	if err := s.controller.SaveCurrentSession(ctx, request.Data, request.ForSessionID); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.controller.State())
}

type deleteResponse struct {
	WasCurrentSession bool `json:"wasCurrentSession"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.context(r)
	defer cancel()
	wasCurrent, err := s.controller.DeleteSession(ctx, r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &deleteResponse{WasCurrentSession: wasCurrent})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.controller.ClearCurrentSession()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.Wrap(err, "decoding request"))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
