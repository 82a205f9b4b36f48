package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ContextKeyRole is the context key for storing the caller role
const ContextKeyRole contextKey = "role"

// Authenticator checks bearer tokens against the configured keys.
type Authenticator struct {
	adminKey  string
	clientKey string
}

// NewAuthenticator creates a new Authenticator. Either key may be a bcrypt
// hash. An empty client key disables client-only access.
func NewAuthenticator(adminKey, clientKey string) *Authenticator {
	return &Authenticator{adminKey: adminKey, clientKey: clientKey}
}

// AuthResult contains the result of an authentication attempt
type AuthResult struct {
	Authenticated bool
	Role          Role
	Error         string
}

// Authenticate authenticates a request using the Authorization header
func (a *Authenticator) Authenticate(authHeader string) AuthResult {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return AuthResult{Error: "missing bearer token"}
	}
	if MatchKey(token, a.adminKey) {
		return AuthResult{Authenticated: true, Role: RoleAdmin}
	}
	if MatchKey(token, a.clientKey) {
		return AuthResult{Authenticated: true, Role: RoleClient}
	}
	return AuthResult{Error: "invalid token"}
}

// RequireAuth is a middleware that requires authentication
func (a *Authenticator) RequireAuth(requiredRole Role, onFail func(w http.ResponseWriter, r *http.Request, status int, msg string)) func(http.Handler) http.Handler {
	if onFail == nil {
		onFail = func(w http.ResponseWriter, r *http.Request, status int, msg string) {
			http.Error(w, msg, status)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := a.Authenticate(r.Header.Get("Authorization"))
			if !result.Authenticated {
				onFail(w, r, http.StatusUnauthorized, result.Error)
				return
			}
			if !HasPermission(result.Role, requiredRole) {
				onFail(w, r, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyRole, result.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRoleFromContext extracts the role from the request context
func GetRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(ContextKeyRole).(Role)
	return role, ok
}

// GetIPAddress extracts the IP address from the request
func GetIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first (for proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
