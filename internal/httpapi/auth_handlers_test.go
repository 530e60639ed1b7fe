package httpapi

import (
	"context"
	"net/http"
	"testing"

	"storekeeper.org/internal/rbac"
)

func TestLoginIssuesSession(t *testing.T) {
	e := newTestEnv(t)
	account, _ := e.seedSession(t, map[string][]rbac.Operation{
		rbac.ModuleBrands: {rbac.OpView},
	})

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"identifier": account.Email,
		"password":   "correct-horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Token   string `json:"token"`
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.Account.ID != account.ID {
		t.Fatalf("account id = %q, want %q", resp.Account.ID, account.ID)
	}

	var cookieSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value == resp.Token {
			cookieSet = true
			if !c.HttpOnly {
				t.Fatal("session cookie must be http-only")
			}
		}
	}
	if !cookieSet {
		t.Fatal("session cookie not set")
	}

	// The issued token authenticates follow-up requests.
	me := e.do(t, http.MethodGet, "/v1/auth/me", resp.Token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", me.Code, me.Body.String())
	}
	var meResp struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
	}
	decodeBody(t, me, &meResp)
	if meResp.Account.ID != account.ID {
		t.Fatalf("me account id = %q, want %q", meResp.Account.ID, account.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newTestEnv(t)
	account, _ := e.seedSession(t, nil)

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"identifier": account.Email,
		"password":   "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	e := newTestEnv(t)
	account, _ := e.seedSession(t, nil)

	body := map[string]any{"identifier": account.Email, "password": "wrong"}
	var last int
	for i := 0; i < 5; i++ {
		last = e.do(t, http.MethodPost, "/v1/auth/login", "", body).Code
	}
	if last != http.StatusForbidden {
		t.Fatalf("fifth failure status = %d, want 403", last)
	}

	// Even the right password is refused while the lock holds.
	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"identifier": account.Email,
		"password":   "correct-horse",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("locked login status = %d, want 403", rec.Code)
	}
}

func TestLoginRefusesInactiveAccount(t *testing.T) {
	e := newTestEnv(t)
	account, _ := e.seedSession(t, nil)
	if err := e.rbacSvc.SetAccountStanding(context.Background(), account.ID, false, false, ""); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"identifier": account.Email,
		"password":   "correct-horse",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.seedSession(t, nil)

	rec := e.do(t, http.MethodPost, "/v1/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if !sessionCleared(rec) {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestMeRequiresSession(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
