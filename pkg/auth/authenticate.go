package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Suhaibinator/SHooks/pkg/hook"
)

// ErrNoToken is returned when a request carries no bearer token.
var ErrNoToken = errors.New("no bearer token")

// ErrInvalidToken is returned when a bearer token does not resolve to a user.
var ErrInvalidToken = errors.New("invalid token")

// Authenticator resolves a bearer token into a user record.
// Transports call it to populate hook.Params.User.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (map[string]any, error)
}

// TokenAuthenticator authenticates bearer tokens against a static set of
// users or a custom validator.
type TokenAuthenticator struct {
	// Users maps a token to its user record.
	Users map[string]map[string]any

	// Validator is an optional token validator.
	Validator func(ctx context.Context, token string) (map[string]any, error)
}

// Authenticate implements Authenticator.
// If a validator is set it takes precedence over the Users map.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (map[string]any, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if a.Validator != nil {
		return a.Validator(ctx, token)
	}
	user, ok := a.Users[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Returns an empty string if the header is missing or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// UserFromRequest resolves the request's bearer token with a.
// A missing token yields a nil user and no error; an invalid one yields an error.
func UserFromRequest(a Authenticator, r *http.Request) (map[string]any, error) {
	if a == nil {
		return nil, nil
	}
	token := BearerToken(r)
	if token == "" {
		return nil, nil
	}
	return a.Authenticate(r.Context(), token)
}

// RequireUser returns a hook that rejects external calls without an authenticated user.
func RequireUser() hook.Hook {
	return func(c *hook.Context) error {
		if c.Params == nil || c.Params.Provider == "" {
			return nil
		}
		if c.Params.User == nil {
			return hook.NotAuthenticated("not authenticated")
		}
		return nil
	}
}
