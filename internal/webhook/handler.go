package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodySize bounds inbound event bodies (1 MB).
const DefaultMaxBodySize = 1048576

// DefaultSignatureHeader is where external senders place the signature.
const DefaultSignatureHeader = "X-Hub-Signature-256"

// EventSink receives events whose signature has been verified. Unverified
// bodies never reach the sink.
type EventSink interface {
	Publish(eventType string, data any)
}

// Config describes the inbound event endpoint.
type Config struct {
	// Secrets maps a source name (the {source} URL segment) to its
	// shared secret. Sources without a secret are unknown.
	Secrets map[string]string

	// SignatureHeader overrides DefaultSignatureHeader.
	SignatureHeader string

	// MaxBodySize overrides DefaultMaxBodySize.
	MaxBodySize int64
}

// Handler verifies and accepts inbound events at POST /webhook/{source}.
type Handler struct {
	config Config
	sink   EventSink
	logger *slog.Logger
}

// NewHandler builds the inbound event handler.
func NewHandler(config Config, sink EventSink, logger *slog.Logger) *Handler {
	if config.SignatureHeader == "" {
		config.SignatureHeader = DefaultSignatureHeader
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	return &Handler{config: config, sink: sink, logger: logger}
}

// ServeHTTP reads the raw body before any parsing, verifies the
// signature, and only then hands the event to the sink. A bad signature
// drops the event whole; the response body never says why.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	secret, ok := h.config.Secrets[source]
	if !ok {
		h.logger.Warn("webhook from unknown source", "source", source)
		h.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.config.MaxBodySize+1))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > h.config.MaxBodySize {
		h.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	signature := r.Header.Get(h.config.SignatureHeader)
	if !Verify(body, signature, secret) {
		h.logger.Warn("webhook signature verification failed",
			"source", source,
			"signature_present", signature != "",
		)
		h.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	h.sink.Publish("webhook."+source, json.RawMessage(body))
	h.logger.Info("webhook event accepted", "source", source, "bytes", len(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
