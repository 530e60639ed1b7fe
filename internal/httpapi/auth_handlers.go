package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"storekeeper.org/internal/obs"
	"storekeeper.org/internal/rbac"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Account   rbac.Account `json:"account"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account, err := a.rbac.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrInvalidCredentials):
			obs.CountAuthDenial("bad_credentials")
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, rbac.ErrAccountInactive):
			obs.CountAuthDenial("account_inactive")
			writeError(w, r, http.StatusForbidden, "account inactive")
		case errors.Is(err, rbac.ErrAccountBlocked):
			obs.CountAuthDenial("account_blocked")
			writeError(w, r, http.StatusForbidden, "account blocked")
		case errors.Is(err, rbac.ErrAccountLocked):
			obs.CountAuthDenial("account_locked")
			writeError(w, r, http.StatusForbidden, "account locked, try again later")
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	token, expiresAt, err := a.sessions.Issue(account.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session issue failed")
		return
	}
	a.setSession(w, token, expiresAt)

	a.audit(r.Context(), "auth.login", map[string]any{
		"account_id": account.ID,
		"identifier": strings.TrimSpace(strings.ToLower(req.Identifier)),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.clearSession(w)
	fields := map[string]any{}
	if accountID, ok := rbac.AccountIDFromContext(r.Context()); ok {
		fields["account_id"] = accountID
	}
	a.audit(r.Context(), "auth.logout", fields)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account": principal.Account,
		"roles":   principal.Roles,
		"matrix":  principal.Matrix,
	})
}
