// Package auth resolves inbound bearer credentials to identities via an
// external identity provider. Credentials are verified on every request;
// nothing is cached across requests.
package auth

import "context"

// Identity is the principal resolved from a request's credential. The
// email address is the tenant key throughout the system. An Identity
// lives for one request and is never persisted.
type Identity struct {
	ID            string
	Email         string
	Authenticated bool
}

type identityKey struct{}

// WithIdentity stores the resolved identity in the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity placed by the auth middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
