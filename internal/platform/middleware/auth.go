package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// TokenVerifier validates a bearer token's signature and expiry and returns
// the principal encoded in its claims.
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*Principal, error)
}

// RevocationChecker reports whether a token has been revoked before its
// natural expiry (logout, forced invalidation).
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Principal is the authenticated identity attached to the request context.
type Principal struct {
	AccountID      string
	Username       string
	Email          string
	Roles          []string
	SessionTimeout time.Duration
	MfaEnabled     bool
}

// HasRole reports whether the principal carries the given role tag.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalKey struct{}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal attaches a principal to the context. Exported for handler tests.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// BearerToken extracts the raw bearer token from an Authorization header.
// Returns "" when the header is missing or not a Bearer scheme.
func BearerToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// Authenticate resolves the bearer token on each request and, when valid and
// not revoked, attaches the principal to the request context. Requests with
// a missing, malformed, expired, or unverifiable token proceed without a
// principal; route-level guards decide whether that is acceptable.
//
// A revocation-registry read failure degrades to "not revoked" so a registry
// outage cannot take down every authenticated route. The degradation is
// logged at warning level for operators.
func Authenticate(verifier TokenVerifier, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := verifier.VerifyAccessToken(token)
			if err != nil {
				logger.WarnContext(ctx, "bearer token rejected",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, token)
				if err != nil {
					logger.WarnContext(ctx, "revocation check degraded - proceeding as not revoked",
						"error", err,
						"request_id", GetRequestID(ctx),
					)
				} else if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"request_id", GetRequestID(ctx),
					)
					writeUnauthorized(w, "Token has been revoked")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// RequirePrincipal rejects requests that did not authenticate.
func RequirePrincipal(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetPrincipal(r.Context()) == nil {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", GetRequestID(r.Context()),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PermissionChecker reports whether any of the given roles grants a permission.
// Kept as a function type so this package stays free of domain imports.
type PermissionChecker func(roles []string, permission string) bool

// RequirePermission rejects authenticated requests whose roles do not grant
// the given permission. Must run after Authenticate.
func RequirePermission(permission string, check PermissionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := GetPrincipal(r.Context())
			if principal == nil {
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			if !check(principal.Roles, permission) {
				logger.WarnContext(r.Context(), "forbidden - permission not granted",
					"permission", permission,
					"account_id", principal.AccountID,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Permission denied"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
