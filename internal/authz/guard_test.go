package authz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/schedly/trustgate/internal/auth"
	"github.com/schedly/trustgate/internal/store"
)

type fakeOwners struct {
	owners map[string]string
	err    error
}

func (f *fakeOwners) AppointmentOwner(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return owner, nil
}

func testGuard(owners map[string]string) *Guard {
	return NewGuard(&fakeOwners{owners: owners}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestAuthorizeResourceAccess(t *testing.T) {
	t.Parallel()

	owner := auth.Identity{Email: "a@x.com", Authenticated: true}

	if !AuthorizeResourceAccess(owner, "a@x.com") {
		t.Error("owner denied")
	}
	if AuthorizeResourceAccess(owner, "b@x.com") {
		t.Error("non-owner allowed")
	}
	// Exact case-sensitive match, no normalization.
	if AuthorizeResourceAccess(owner, "A@x.com") {
		t.Error("case-insensitive match allowed")
	}
	if AuthorizeResourceAccess(auth.Identity{Email: "a@x.com"}, "a@x.com") {
		t.Error("unauthenticated identity allowed")
	}
	if AuthorizeResourceAccess(auth.Identity{Authenticated: true}, "") {
		t.Error("empty emails matched")
	}
}

func TestAuthorizeAppointmentAccess(t *testing.T) {
	t.Parallel()

	g := testGuard(map[string]string{"appt-1": "a@x.com"})
	ctx := context.Background()
	alice := auth.Identity{Email: "a@x.com", Authenticated: true}
	bob := auth.Identity{Email: "b@x.com", Authenticated: true}

	if err := g.AuthorizeAppointmentAccess(ctx, alice, "appt-1"); err != nil {
		t.Fatalf("owner denied: %v", err)
	}

	mismatch := g.AuthorizeAppointmentAccess(ctx, bob, "appt-1")
	missing := g.AuthorizeAppointmentAccess(ctx, bob, "appt-unknown")

	if !errors.Is(mismatch, ErrNotAuthorized) {
		t.Fatalf("mismatch: error = %v", mismatch)
	}
	if !errors.Is(missing, ErrNotAuthorized) {
		t.Fatalf("missing: error = %v", missing)
	}
	// Anti-enumeration: the two denials are indistinguishable.
	if mismatch.Error() != missing.Error() {
		t.Fatalf("denials differ: %q vs %q", mismatch.Error(), missing.Error())
	}
}

func TestAuthorizeAppointmentAccessStoreFault(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	g := NewGuard(&fakeOwners{err: boom}, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	err := g.AuthorizeAppointmentAccess(context.Background(), auth.Identity{Email: "a@x.com", Authenticated: true}, "appt-1")
	if !errors.Is(err, boom) {
		t.Fatalf("store fault: error = %v, want propagation", err)
	}
	if errors.Is(err, ErrNotAuthorized) {
		t.Fatal("store fault collapsed into a denial")
	}
}
