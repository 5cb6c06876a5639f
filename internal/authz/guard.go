// Package authz prevents one tenant from acting on another tenant's
// resources: fetch the stored owner, compare emails, fail closed on any
// mismatch or absence.
package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/schedly/trustgate/internal/auth"
	"github.com/schedly/trustgate/internal/store"
)

// ErrNotAuthorized covers both "does not exist" and "not yours". The two
// cases are deliberately indistinguishable to callers so non-owners
// cannot enumerate resource ids. Logs record the real cause.
var ErrNotAuthorized = errors.New("not authorized")

// OwnerLookup is the slice of the persistent store the guard needs.
type OwnerLookup interface {
	AppointmentOwner(ctx context.Context, id string) (string, error)
}

// AuthorizeResourceAccess reports whether identity may act on a resource
// owned by ownerEmail. The match is exact and case-sensitive; there is
// no role-based override.
func AuthorizeResourceAccess(identity auth.Identity, ownerEmail string) bool {
	if !identity.Authenticated || identity.Email == "" {
		return false
	}
	return identity.Email == ownerEmail
}

// Guard performs ownership checks against the persistent store.
type Guard struct {
	store  OwnerLookup
	logger *slog.Logger
}

// NewGuard builds a Guard over the given store.
func NewGuard(store OwnerLookup, logger *slog.Logger) *Guard {
	return &Guard{store: store, logger: logger}
}

// AuthorizeAppointmentAccess fetches the appointment's stored owner and
// compares it to the identity's email. A missing row and an ownership
// mismatch both return ErrNotAuthorized; a store fault propagates so the
// caller can answer 5xx instead of silently denying.
func (g *Guard) AuthorizeAppointmentAccess(ctx context.Context, identity auth.Identity, appointmentID string) error {
	owner, err := g.store.AppointmentOwner(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		g.logger.Warn("appointment access to unknown resource",
			"appointment_id", appointmentID,
			"email", identity.Email,
		)
		return ErrNotAuthorized
	}
	if err != nil {
		return err
	}

	if !AuthorizeResourceAccess(identity, owner) {
		g.logger.Warn("appointment ownership mismatch",
			"appointment_id", appointmentID,
			"email", identity.Email,
			"owner_email", owner,
		)
		return ErrNotAuthorized
	}
	return nil
}
