// Package handler provides HTTP handlers for the chat API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/chelhq/chel-data/internal/api/respond"
	"github.com/chelhq/chel-data/internal/chat"
	"github.com/chelhq/chel-data/internal/db"
)

// maxChatBodyBytes bounds the inbound chat request body.
const maxChatBodyBytes = 16 << 10

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool      *db.Pool
	bridge    *chat.Bridge
	staticDir string
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, bridge *chat.Bridge, staticDir string) *Handler {
	return &Handler{pool: pool, bridge: bridge, staticDir: staticDir}
}

// Root serves the static chat page at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Chat handles POST /chat: one user utterance in, one answer out.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Body must be JSON with a message field")
		return
	}
	if req.Message == "" {
		respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "message must not be empty")
		return
	}

	answer, err := h.bridge.Answer(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrDisallowedSQL) {
			respond.WriteError(w, http.StatusBadRequest, "DISALLOWED_SQL", "The generated query was rejected")
			return
		}
		respond.WriteError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Could not produce an answer")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, chatResponse{Answer: answer})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
