package webhook

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type recordingSink struct {
	types []string
	data  []any
}

func (s *recordingSink) Publish(eventType string, data any) {
	s.types = append(s.types, eventType)
	s.data = append(s.data, data)
}

func newTestRouter(cfg Config, sink EventSink) *chi.Mux {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Post("/webhook/{source}", NewHandler(cfg, sink, logger).ServeHTTP)
	return r
}

func post(r http.Handler, path, body, header, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	if signature != "" {
		req.Header.Set(header, signature)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAcceptsSignedEvent(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	router := newTestRouter(Config{Secrets: map[string]string{"gateway": "s3cret"}}, sink)

	body := `{"session":"abc","state":"open"}`
	rec := post(router, "/webhook/gateway", body, DefaultSignatureHeader, Sign([]byte(body), "s3cret"))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(sink.types) != 1 || sink.types[0] != "webhook.gateway" {
		t.Fatalf("sink received %v", sink.types)
	}
}

func TestHandlerDropsEventOnBadSignature(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	router := newTestRouter(Config{Secrets: map[string]string{"gateway": "s3cret"}}, sink)

	body := `{"session":"abc"}`
	cases := map[string]string{
		"wrong secret":      Sign([]byte(body), "wrong"),
		"missing signature": "",
		"garbage":           "sha256=zzzz",
	}
	for name, sig := range cases {
		rec := post(router, "/webhook/gateway", body, DefaultSignatureHeader, sig)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", name, rec.Code)
		}
		// Rejection body must not explain which part failed.
		if got := rec.Body.String(); strings.Contains(got, "signature") || strings.Contains(got, "secret") {
			t.Errorf("%s: response leaks detail: %s", name, got)
		}
	}
	if len(sink.types) != 0 {
		t.Fatalf("unverified events reached the sink: %v", sink.types)
	}
}

func TestHandlerRejectsUnknownSource(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	router := newTestRouter(Config{Secrets: map[string]string{"gateway": "s3cret"}}, sink)

	body := `{}`
	rec := post(router, "/webhook/nobody", body, DefaultSignatureHeader, Sign([]byte(body), "s3cret"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHandlerEnforcesBodyLimit(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	router := newTestRouter(Config{
		Secrets:     map[string]string{"gateway": "s3cret"},
		MaxBodySize: 16,
	}, sink)

	body := strings.Repeat("x", 64)
	rec := post(router, "/webhook/gateway", body, DefaultSignatureHeader, Sign([]byte(body), "s3cret"))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if len(sink.types) != 0 {
		t.Fatal("oversized event reached the sink")
	}
}

func TestHandlerVerifiesRawBytes(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	router := newTestRouter(Config{Secrets: map[string]string{"gateway": "s3cret"}}, sink)

	// Semantically identical JSON with different whitespace must fail:
	// the signature covers exact raw bytes.
	signed := `{"a": 1}`
	sent := `{"a":1}`
	rec := post(router, "/webhook/gateway", sent, DefaultSignatureHeader, Sign([]byte(signed), "s3cret"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for re-serialized body", rec.Code)
	}
}
