package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aelexs/smsgateway/internal/domain"
	"github.com/aelexs/smsgateway/internal/errmap"
	"github.com/aelexs/smsgateway/internal/observability"
	"github.com/aelexs/smsgateway/internal/sms"
)

const (
	// maxRequestBytes bounds the JSON body accepted by POST /v1/messages.
	maxRequestBytes = 64 << 10

	// retryAfterSeconds is advertised when the gateway reports it is unavailable.
	retryAfterSeconds = "5"
)

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// MessageHandler exposes an sms.Client over HTTP.
type MessageHandler struct {
	client sms.Client
	logger *slog.Logger
}

// NewMessageHandler creates a handler serving client.
func NewMessageHandler(client sms.Client, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{client: client, logger: logger}
}

// Register mounts the message routes on mux.
func (h *MessageHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/messages", h.send)
	mux.HandleFunc("GET /v1/messages/{id}", h.status)
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.writeError(w, r, fmt.Errorf("decode request: %v: %w", err, domain.ErrInvalidInput))
		return
	}

	to, err := domain.NewPhoneNumber(req.To)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.client.SendMessage(r.Context(), to, domain.Message(req.Body))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusAccepted, sendResponse{MessageID: id.String()})
}

func (h *MessageHandler) status(w http.ResponseWriter, r *http.Request) {
	id, err := domain.NewMessageID(r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status, err := h.client.MessageStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, statusResponse{Status: status.Code()})
}

// writeError logs err at a level matching who is at fault: unknown ids are
// routine, other caller mistakes are warnings, the rest are errors.
func (h *MessageHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	herr := errmap.ToHTTPError(err)

	level := slog.LevelError
	switch {
	case domain.IsNotFound(err):
		level = slog.LevelInfo
	case domain.IsClientError(err):
		level = slog.LevelWarn
	}
	observability.WithTraceID(r.Context(), h.logger).Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", herr.StatusCode),
		slog.String("error", err.Error()),
	)

	if domain.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	h.writeJSON(w, r, herr.StatusCode, herr)
}

func (h *MessageHandler) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.DebugContext(r.Context(), "encode response failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}
