package log

import (
	"context"
	"log/slog"
	"strings"
)

// TokenMask fully replaces credential material in hardened logs.
const TokenMask = "[REDACTED]"

// MaskingHandler rewrites sensitive attributes before delegating to the
// wrapped handler. Masking is keyed on well-known attribute names; it is
// log-review obfuscation, not a secrecy mechanism.
type MaskingHandler struct {
	inner slog.Handler
}

// NewMaskingHandler wraps inner with sensitive-field masking.
func NewMaskingHandler(inner slog.Handler) *MaskingHandler {
	return &MaskingHandler{inner: inner}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *MaskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = maskAttr(a)
	}
	return &MaskingHandler{inner: h.inner.WithAttrs(out)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{inner: h.inner.WithGroup(name)}
}

func maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, g := range group {
			out[i] = maskAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	key := strings.ToLower(a.Key)
	switch {
	case key == "email" || strings.HasSuffix(key, "_email"):
		return slog.String(a.Key, MaskEmail(a.Value.String()))
	case key == "phone" || strings.HasSuffix(key, "_phone"):
		return slog.String(a.Key, MaskPhone(a.Value.String()))
	case key == "token" || key == "secret" || strings.HasSuffix(key, "_token") || strings.HasSuffix(key, "_secret"):
		return slog.String(a.Key, MaskToken(a.Value.String()))
	}
	return a
}

// MaskEmail keeps the first two characters of the local part and the
// whole domain: "local@domain" becomes "lo***@domain".
func MaskEmail(s string) string {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return MaskToken(s)
	}
	local, domain := s[:at], s[at+1:]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***@" + domain
}

// MaskPhone keeps the first four characters and masks the rest.
func MaskPhone(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

// MaskToken fully replaces credential material with a fixed mask.
func MaskToken(s string) string {
	if s == "" {
		return ""
	}
	return TokenMask
}
