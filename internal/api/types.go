package api

import (
	"time"

	"github.com/schedly/trustgate/internal/events"
)

type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type AppointmentResponse struct {
	ID         string `json:"id"`
	OwnerEmail string `json:"owner_email"`
}

type TenantResponse struct {
	Email              string    `json:"email"`
	SubscriptionStatus string    `json:"subscription_status"`
	TrialEndsAt        time.Time `json:"trial_ends_at"`
}

type EventsResponse struct {
	Events []events.Event `json:"events"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
