// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const (
	IdentityKey contextKey = "identity"

	// TokenCookie carries the session token for browser clients.
	TokenCookie = "jwt"
)

// Identity is the resolved user attached to an authenticated request.
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  core.Role
	Photo string
}

// Resolver turns a raw token into the identity it belongs to. It fails when
// the token is invalid or expired, the user is gone or inactive, or the
// password changed after the token was issued.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// Authenticated requires a token from the Authorization header or the
// session cookie and resolves it to an identity.
func Authenticated(resolver Resolver) Stage {
	return func(r *http.Request) (*http.Request, error) {
		token := ExtractToken(r)
		if token == "" {
			return r, core.UnauthorizedError(
				"You are not logged in! Please log in to get access.",
			)
		}

		id, err := resolver.Resolve(r.Context(), token)
		if err != nil {
			return r, err
		}

		return r.WithContext(WithIdentity(r.Context(), id)), nil
	}
}

// Authorized requires an identity whose role is in the allowed set.
func Authorized(roles ...core.Role) Stage {
	allowed := core.NewRoleSet(roles...)

	return func(r *http.Request) (*http.Request, error) {
		id := GetIdentity(r.Context())
		if id == nil {
			return r, core.UnauthorizedError("")
		}

		if !allowed.Contains(id.Role) {
			return r, core.ForbiddenError("")
		}

		return r, nil
	}
}

func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return Chain(Authenticated(resolver)).Handler
}

func RequireRole(roles ...core.Role) func(http.Handler) http.Handler {
	return Chain(Authorized(roles...)).Handler
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(core.RoleAdmin)(next)
}

// OptionalAuth resolves the session cookie when present and otherwise lets
// the request through anonymously. Rendered pages use it.
func OptionalAuth(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookieToken(r)
			if token != "" {
				id, err := resolver.Resolve(r.Context(), token)
				if err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken prefers a bearer token and falls back to the session cookie.
func ExtractToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	return cookieToken(r)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return id
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.ID
	}
	return ""
}
