// Package api exposes the chat service over HTTP for polling clients. One
// endpoint carries the whole protocol: POST /api/chat with an action
// envelope for mutations, GET /api/chat with query parameters for the three
// read forms (chat list, message history, typing status). Clients are
// expected to poll the reads every few seconds; there is no push channel.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"

	"github.com/duochat/chat-app/internal/chat"
	"github.com/duochat/chat-app/internal/kv"
	"github.com/duochat/chat-app/internal/metrics"
	"github.com/duochat/chat-app/internal/ratelimit"
)

// Server handles the polling chat API.
type Server struct {
	svc     *chat.Service
	limiter *ratelimit.Limiter
	store   kv.Store
}

// NewServer creates an API server over the given service. The limiter may
// be nil to disable rate limiting (tests do this).
func NewServer(svc *chat.Service, limiter *ratelimit.Limiter, store kv.Store) *Server {
	return &Server{svc: svc, limiter: limiter, store: store}
}

// Handler returns the fully wired HTTP handler: routes plus CORS and panic
// recovery middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	return handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
	)(handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(mux))
}

// handleChat dispatches on HTTP method: POST mutations, GET queries.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAction(w, r)
	case http.MethodGet:
		s.handleQuery(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", newRequestID())
	}
}

// handleHealth reports process and store liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		log.Printf("[api] health: store unreachable: %v", err)
		status = "store unreachable"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, requestID string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}
