// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// Roles recognised by the hiring API.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleEmployer  = "employer"
	RoleService   = "service"
)

// DevSubject is the principal used when authentication is disabled.
const DevSubject = "dev-local"

// Token validation failures with their own client message.
var (
	ErrMissingSubject = errors.New("token missing subject")
	ErrRolesNotList   = errors.New("token roles must be a list")
)

// principalKey is the context key for the authenticated principal.
type principalKey struct{}

// Principal is the caller a request runs as.
type Principal struct {
	Subject string
	Roles   []string
}

// HasAny reports whether p holds at least one of roles.
func (p Principal) HasAny(roles ...string) bool {
	for _, role := range roles {
		if slices.Contains(p.Roles, role) {
			return true
		}
	}
	return false
}

// DevPrincipal returns the all-roles principal used in development.
func DevPrincipal() Principal {
	return Principal{
		Subject: DevSubject,
		Roles:   []string{RoleAdmin, RoleRecruiter, RoleEmployer, RoleService},
	}
}

// TokenValidator is an interface for validating bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (Principal, error)
}

// Authenticator resolves the principal of each request.
type Authenticator struct {
	enabled   bool
	validator TokenValidator
}

// NewAuthenticator creates an authenticator. When enabled is false every
// request runs as DevPrincipal and validator may be nil.
func NewAuthenticator(enabled bool, validator TokenValidator) *Authenticator {
	return &Authenticator{enabled: enabled, validator: validator}
}

// Require returns middleware that admits callers holding any of roles.
// With no roles, any authenticated caller is admitted.
func (a *Authenticator) Require(roles ...string) func(http.Handler) http.Handler {
	required := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			required = append(required, role)
		}
	}
	slices.Sort(required)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, status, msg := a.authenticate(r)
			if status != 0 {
				writeError(w, status, msg)
				return
			}
			if len(required) > 0 && !principal.HasAny(required...) {
				writeError(w, http.StatusForbidden,
					fmt.Sprintf("insufficient role. required any of: [%s]", strings.Join(required, ", ")))
				return
			}
			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate returns the principal, or a non-zero status and message.
func (a *Authenticator) authenticate(r *http.Request) (Principal, int, string) {
	if !a.enabled {
		return DevPrincipal(), 0, ""
	}

	// Handle case-insensitive "Bearer" prefix
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Principal{}, http.StatusUnauthorized, "missing bearer token"
	}

	principal, err := a.validator.ValidateToken(parts[1])
	switch {
	case errors.Is(err, ErrMissingSubject):
		return Principal{}, http.StatusUnauthorized, ErrMissingSubject.Error()
	case errors.Is(err, ErrRolesNotList):
		return Principal{}, http.StatusUnauthorized, ErrRolesNotList.Error()
	case err != nil:
		return Principal{}, http.StatusUnauthorized, "invalid auth token"
	}
	if len(principal.Roles) == 0 {
		return Principal{}, http.StatusForbidden, "token has no roles"
	}
	return principal, 0, ""
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// WithPrincipal returns a context carrying p (for testing purposes).
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
