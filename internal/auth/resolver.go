package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task-manager/internal/models"
)

var (
	// ErrUnauthenticated is the only error callers should surface to clients;
	// the wrapped cause is for logs.
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrMissingToken    = errors.New("missing bearer token")
)

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Resolver turns an Authorization header into the current user. It keeps no
// state between requests.
type Resolver struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewResolver(tokens TokenVerifier, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns ErrUnauthenticated for an absent, malformed, invalid or
// expired token and for a subject that no longer exists. Storage failures are
// returned as they are.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (models.User, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		return models.User{}, unauthenticated(err)
	}
	username, err := r.tokens.Verify(token)
	if err != nil {
		return models.User{}, unauthenticated(err)
	}
	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, unauthenticated(fmt.Errorf("subject %q: %w", username, err))
		}
		return models.User{}, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return parts[1], nil
}

type authError struct{ cause error }

func (e *authError) Error() string { return ErrUnauthenticated.Error() + ": " + e.cause.Error() }

func (e *authError) Is(target error) bool { return target == ErrUnauthenticated }

func (e *authError) Unwrap() error { return e.cause }

func unauthenticated(cause error) error {
	return &authError{cause: cause}
}
