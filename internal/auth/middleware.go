package auth

import (
	"context"
	"net/http"
)

// Identity is the authenticated caller of a request. AccessToken is the
// provider OAuth token, needed by handlers that call the directory on the
// user's behalf.
type Identity struct {
	Username    string
	AccessToken string
}

// contextKey is unexported so no other package can read or shadow the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// SessionCookieName is the HttpOnly cookie holding the session JWT. The
// login handler sets it, the logout handler clears it.
const SessionCookieName = "token"

// apiKeyHeader carries a raw provider access token for non-browser clients.
const apiKeyHeader = "X-API-Key"

// Introspector resolves a raw provider access token to a username.
// *Provider implements it; middleware tests use a fake.
type Introspector interface {
	Introspect(ctx context.Context, accessToken string) (string, error)
}

// RequireAuth enforces authentication on protected routes. It accepts either
// the session cookie (validated locally) or an X-API-Key header (introspected
// against the auth server), in that order, and stores the resulting Identity
// in the request context. Anything else is a 401.
func RequireAuth(tokens *TokenService, provider Introspector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, tokens, provider)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// ContextWithIdentity stores the authenticated caller in a context.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated caller. The second return
// is false on requests that never passed through RequireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Username != ""
}

func authenticate(r *http.Request, tokens *TokenService, provider Introspector) (Identity, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		username, providerToken, err := tokens.Validate(cookie.Value)
		if err != nil {
			return Identity{}, err
		}
		return Identity{Username: username, AccessToken: providerToken}, nil
	}

	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		return Identity{}, http.ErrNoCookie
	}

	username, err := provider.Introspect(r.Context(), apiKey)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Username: username, AccessToken: apiKey}, nil
}
