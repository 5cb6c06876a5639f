// Package store is the persistent-store port of the trust boundary.
// Only two record shapes matter to trust decisions: an appointment's
// owner email and a tenant record keyed by email.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports a missing record. Callers deciding authorization
// must not surface it differently from an ownership mismatch.
var ErrNotFound = errors.New("record not found")

// Tenant is a tenant record. Subscription state is stored alongside but
// only the email participates in trust decisions.
type Tenant struct {
	Email              string
	SubscriptionStatus string
	TrialEndsAt        time.Time
	CreatedAt          time.Time
}

// Appointment is a tenant-owned resource. The owner email is the field
// every access check compares against.
type Appointment struct {
	ID         string
	OwnerEmail string
	Customer   string
	StartsAt   time.Time
}

// NewAppointmentID mints an appointment identifier. Both adapters call
// it when an insert arrives without one.
func NewAppointmentID() string {
	return uuid.NewString()
}

// Store is the keyed-lookup contract consumed by the authorization
// guard and the tenant endpoints.
type Store interface {
	// AppointmentOwner returns the stored owner email for id, or
	// ErrNotFound if no such appointment exists.
	AppointmentOwner(ctx context.Context, id string) (string, error)

	// TenantByEmail returns the tenant record for email, or ErrNotFound.
	TenantByEmail(ctx context.Context, email string) (Tenant, error)

	// UpsertTenant inserts or updates a tenant record keyed by email.
	UpsertTenant(ctx context.Context, t Tenant) error

	Close() error
}
