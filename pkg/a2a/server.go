package a2a

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/routa-ai/routa/pkg/coordination"
)

// Message is the text part of an agent-to-agent exchange.
type Message struct {
	Text string `json:"text"`
}

// Envelope wraps a message on the wire in both directions.
type Envelope struct {
	Message Message `json:"message"`
}

// Server exposes the dispatcher over HTTP.
type Server struct {
	dispatcher *Dispatcher
	store      coordination.Store
	logger     *slog.Logger
	httpServer *http.Server
}

func NewServer(addr string, dispatcher *Dispatcher, store coordination.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/a2a/messages", s.handleMessage)
	r.Get("/workspaces/{workspaceID}/agents", s.handleListAgents)

	return r
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("a2a server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the route tree for embedding in another server or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	reply := s.dispatcher.Dispatch(r.Context(), env.Message.Text)
	writeJSON(w, http.StatusOK, Envelope{Message: Message{Text: reply}})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceID")

	agents, err := s.store.ListAgents(workspaceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workspace_id": workspaceID,
		"agents":       agents,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
