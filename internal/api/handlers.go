package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schedly/trustgate/internal/auth"
	"github.com/schedly/trustgate/internal/authz"
	"github.com/schedly/trustgate/internal/store"
	"github.com/schedly/trustgate/internal/validate"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleGetAppointment handles GET /appointments/{appointmentID}. The
// ownership guard runs before any resource data is returned; a missing
// appointment and someone else's appointment answer identically.
func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	appointmentID := chi.URLParam(r, "appointmentID")

	if err := s.guard.AuthorizeAppointmentAccess(r.Context(), identity, appointmentID); err != nil {
		if errors.Is(err, authz.ErrNotAuthorized) {
			s.writeError(w, http.StatusForbidden, "access denied")
			return
		}
		s.logger.Error("ownership lookup failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, AppointmentResponse{
		ID:         appointmentID,
		OwnerEmail: identity.Email,
	})
}

// handleTenantMe handles GET /tenants/me: the caller's own tenant
// record, keyed by the authenticated email. No id parameter exists, so
// there is nothing to enumerate.
func (s *Server) handleTenantMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	tenant, err := s.store.TenantByEmail(r.Context(), identity.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "no tenant record")
		return
	}
	if err != nil {
		s.logger.Error("tenant lookup failed", "error", err, "email", identity.Email)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, TenantResponse{
		Email:              tenant.Email,
		SubscriptionStatus: tenant.SubscriptionStatus,
		TrialEndsAt:        tenant.TrialEndsAt,
	})
}

// handleEvents handles GET /events?since=<id>: a snapshot of verified
// webhook events for authenticated pollers.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = parsed
	}

	s.writeJSON(w, http.StatusOK, EventsResponse{Events: s.hub.SnapshotSince(since)})
}

// handleNotify handles POST /notifications: shape-check the payload and
// accept it for delivery. Delivery itself happens outside the trust
// boundary.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var payload validate.NotificationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if result := validate.ValidateNotificationPayload(payload); !result.OK {
		s.rejectValidation(w, r, result)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	s.hub.Publish("notification.accepted", map[string]string{
		"tenant":  identity.Email,
		"channel": payload.Channel,
	})
	s.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// handleAssistantMessage handles POST /assistant/messages.
func (s *Server) handleAssistantMessage(w http.ResponseWriter, r *http.Request) {
	var payload validate.AssistantMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if result := validate.ValidateAssistantMessagePayload(payload); !result.OK {
		s.rejectValidation(w, r, result)
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	s.hub.Publish("assistant.message.accepted", map[string]string{
		"tenant": identity.Email,
	})
	s.writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

func (s *Server) rejectValidation(w http.ResponseWriter, r *http.Request, result validate.Result) {
	s.logger.Warn("payload validation failed",
		"path", r.URL.Path,
		"field", result.Field,
		"reason", result.Reason,
	)
	s.writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:  "validation failed",
		Field:  result.Field,
		Reason: result.Reason,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
