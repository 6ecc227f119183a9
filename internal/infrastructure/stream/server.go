package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/felixgeelhaar/prdreview/internal/domain/submission"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
	"github.com/felixgeelhaar/prdreview/pkg/domain/review"
	"go.uber.org/zap"
)

const maxRequestBody = 4 << 20

// API is the part of the API client the server reports on.
type API interface {
	CheckHealth(ctx context.Context) bool
	BaseURL() string
	DocsURL() string
	SchemaURL() string
}

// Server is the local review console: it drives one session and streams
// its snapshots to browser or tooling clients.
type Server struct {
	addr    string
	session *submission.Session
	api     API
	hub     *Hub
	logger  *zap.Logger
	server  *http.Server

	unsubscribe func()
}

// NewServer creates a server bound to session. Snapshots start flowing to
// stream clients immediately.
func NewServer(addr string, session *submission.Session, api API, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := NewHub(logger.Named("hub"))
	s := &Server{
		addr:    addr,
		session: session,
		api:     api,
		hub:     hub,
		logger:  logger,
	}
	hub.Publish(session.Snapshot())
	s.unsubscribe = session.Subscribe(hub.Publish)
	return s
}

// Hub exposes the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/review", s.handleReview)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/links", s.handleLinks)
	mux.Handle("GET /events", NewSSEHandler(s.hub))
	mux.Handle("GET /ws", NewWSHandler(s.hub, s.session, s.logger.Named("ws")))

	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// No write timeout: event streams stay open.
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("review console listening", zap.String("addr", ln.Addr().String()))
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the HTTP server and detaches from the session.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleReview accepts a JSON ReviewRequest, or raw markdown when the
// content type is text/markdown or text/plain.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "could not read body"})
		return
	}

	var req review.ReviewRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "text/markdown", "text/plain":
		req = review.NewRequest(string(body))
	default:
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
			return
		}
	}

	snap, err := s.session.Submit(req)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, snap)
	case errors.Is(err, submission.ErrInFlight):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Reset())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	if snap.Result == nil {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: "no review result to export"})
		return
	}

	out, err := presentation.Export(snap.Result)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", presentation.ExportFilename))
	_, _ = io.WriteString(w, out)
}

type healthBody struct {
	Online  bool   `json:"online"`
	APIBase string `json:"api_base"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthBody{
		Online:  s.api.CheckHealth(r.Context()),
		APIBase: s.api.BaseURL(),
	})
}

type linksBody struct {
	Docs   string `json:"docs"`
	Schema string `json:"schema"`
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, linksBody{Docs: s.api.DocsURL(), Schema: s.api.SchemaURL()})
}
