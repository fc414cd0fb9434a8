package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreau/penny/internal/agent"
	"github.com/nmoreau/penny/internal/auth"
)

type Handler struct {
	agent   *agent.Agent
	timeout time.Duration
}

// NewHandler wraps the agent. timeout bounds each language-model round trip.
func NewHandler(a *agent.Agent, timeout time.Duration) *Handler {
	return &Handler{agent: a, timeout: timeout}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.chat)
	r.Post("/stream", h.stream)
}

type chatRequest struct {
	Message     string          `json:"message"`
	ChatHistory []agent.Message `json:"chat_history"`
}

type chatResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	reply, err := h.agent.Chat(ctx, req.Message, req.ChatHistory)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := chatResponse{
		Response: reply,
		Message:  req.Message,
		Status:   "success",
	}

	if ident, ok := auth.FromContext(r.Context()); ok {
		resp.Username = ident.Username
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type streamChunk struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Done    bool   `json:"done,omitempty"`
}

// stream delivers the reply as server-sent events: content chunks, then a
// terminal done marker. Errors arrive as a chunk carrying a message.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for ev := range h.agent.ChatStream(ctx, req.Message, req.ChatHistory) {
		chunk := streamChunk{Content: ev.Content, Error: ev.Err, Done: ev.Done}

		buf, err := json.Marshal(chunk)
		if err != nil {
			slog.Error("failed to encode stream chunk", "error", err)
			return
		}

		if _, err := w.Write(append(append([]byte("data: "), buf...), '\n', '\n')); err != nil {
			return
		}

		flusher.Flush()
	}
}
