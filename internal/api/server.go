// Package api serves the assistant over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Replier answers one chat message. assistant.Service satisfies it.
type Replier interface {
	Reply(ctx context.Context, message, contextTag string) string
}

// maxRequestBody caps POST /api/chat bodies.
const maxRequestBody = 64 << 10

// Server routes chat requests to a Replier.
type Server struct {
	router        *chi.Mux
	replier       Replier
	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewServer builds the router. allowedOrigin is echoed in CORS headers; "*"
// allows any site to embed the chat widget.
func NewServer(replier Replier, allowedOrigin string) *Server {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	s := &Server{
		router:        chi.NewRouter(),
		replier:       replier,
		allowedOrigin: allowedOrigin,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.upgrader.CheckOrigin = s.checkOrigin

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.cors)

	s.router.Get("/health", s.health)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Get("/chat/ws", s.chatSocket)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.allowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || strings.EqualFold(origin, s.allowedOrigin)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message *string `json:"message"`
	Context string  `json:"context"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := s.replier.Reply(r.Context(), *req.Message, req.Context)
	respondJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[api] failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
