package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storekeeper.org/internal/obs"
	"storekeeper.org/internal/rbac"
)

const (
	authHeader    = "Authorization"
	bearer        = "Bearer "
	sessionCookie = "admin_session"
)

var publicPaths = []string{
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

// withAuth resolves the session-held identity into a principal on every
// request. Any resolution failure clears the session cookie so a dead
// identity is never retried.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a.sessions == nil || a.resolver == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := sessionToken(r)
		if token == "" {
			obs.CountAuthDenial("unauthenticated")
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		accountID, err := a.sessions.Verify(token)
		if err != nil {
			a.clearSession(w)
			obs.CountAuthDenial("invalid_token")
			writeError(w, r, http.StatusUnauthorized, "invalid session token")
			return
		}

		principal, err := a.resolver.Resolve(r.Context(), accountID)
		if err != nil {
			a.clearSession(w)
			switch {
			case errors.Is(err, rbac.ErrAccountNotFound):
				obs.CountAuthDenial("account_not_found")
				writeError(w, r, http.StatusUnauthorized, "account not found")
			case errors.Is(err, rbac.ErrAccountInactive):
				obs.CountAuthDenial("account_inactive")
				writeError(w, r, http.StatusUnauthorized, "account inactive")
			case errors.Is(err, rbac.ErrAccountBlocked):
				obs.CountAuthDenial("account_blocked")
				writeError(w, r, http.StatusUnauthorized, "account blocked")
			case errors.Is(err, rbac.ErrAccountLocked):
				obs.CountAuthDenial("account_locked")
				writeError(w, r, http.StatusUnauthorized, "account locked")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := rbac.ContextWithPrincipal(r.Context(), principal)
		ctx = rbac.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission runs the authorization gate and writes the denial when it
// fails. A missing principal is 401, an insufficient grant is 403.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, module string, op rbac.Operation) bool {
	err := rbac.RequirePermission(r.Context(), module, op)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, rbac.ErrAuthenticationRequired):
		obs.CountAuthDenial("unauthenticated")
		writeError(w, r, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, rbac.ErrInsufficientPermission):
		obs.CountAuthDenial("permission")
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, rbac.ErrInsufficientRole):
		obs.CountAuthDenial("role")
		writeError(w, r, http.StatusForbidden, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "authorization error")
	}
	return false
}

// sessionToken pulls the token from the session cookie, falling back to a
// bearer header for non-browser clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if token := strings.TrimSpace(c.Value); token != "" {
			return token
		}
	}
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return ""
	}
	return strings.TrimSpace(header[len(bearer):])
}

func (a *API) setSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
