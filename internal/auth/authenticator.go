package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Failure taxonomy. ProviderUnavailable is distinct from
// InvalidCredential so callers can retry only on the former.
var (
	ErrMissingCredential   = errors.New("missing or malformed Authorization header")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// TokenVerifier is the external identity provider: it resolves a bearer
// token to an identity or rejects it. Implementations must distinguish a
// rejection (ErrInvalidCredential) from a communication fault
// (ErrProviderUnavailable).
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
}

// Authenticator converts inbound request headers into an Identity.
type Authenticator struct {
	provider TokenVerifier
	logger   *slog.Logger
}

// NewAuthenticator builds an Authenticator over the given provider.
func NewAuthenticator(provider TokenVerifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{provider: provider, logger: logger}
}

// Authenticate requires an Authorization header of the exact shape
// "Bearer <token>". A missing or malformed header fails with
// ErrMissingCredential before any network call. Otherwise the token is
// forwarded to the identity provider; every request is independently
// verified.
func (a *Authenticator) Authenticate(ctx context.Context, headers http.Header) (Identity, error) {
	token, err := ExtractBearerToken(headers)
	if err != nil {
		return Identity{}, err
	}

	identity, err := a.provider.VerifyToken(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderUnavailable):
			a.logger.Error("identity provider unreachable", "error", err)
			return Identity{}, ErrProviderUnavailable
		case errors.Is(err, ErrInvalidCredential):
			a.logger.Warn("credential rejected by identity provider", "token", token)
			return Identity{}, ErrInvalidCredential
		default:
			// Unclassified provider faults are communication faults.
			a.logger.Error("identity provider call failed", "error", err)
			return Identity{}, ErrProviderUnavailable
		}
	}

	if identity.Email == "" {
		a.logger.Warn("identity provider returned empty subject", "token", token)
		return Identity{}, ErrInvalidCredential
	}

	identity.Authenticated = true
	return identity, nil
}

// ExtractBearerToken pulls the token out of an "Authorization: Bearer
// <token>" header. Any other shape fails with ErrMissingCredential.
func ExtractBearerToken(headers http.Header) (string, error) {
	value := headers.Get("Authorization")
	if value == "" {
		return "", ErrMissingCredential
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(value, prefix) {
		return "", ErrMissingCredential
	}

	token := strings.TrimSpace(strings.TrimPrefix(value, prefix))
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
