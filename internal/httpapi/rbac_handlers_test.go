package httpapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"storekeeper.org/internal/rbac"
)

func adminGrants() map[string][]rbac.Operation {
	return map[string][]rbac.Operation{
		rbac.ModuleRoles:       {rbac.OpView, rbac.OpAdd, rbac.OpEdit, rbac.OpDelete},
		rbac.ModulePermissions: {rbac.OpView, rbac.OpAdd, rbac.OpEdit, rbac.OpDelete},
		rbac.ModuleAdmins:      {rbac.OpView, rbac.OpAdd, rbac.OpEdit},
	}
}

func TestRoleLifecycle(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.seedSession(t, adminGrants())

	rec := e.do(t, http.MethodPost, "/v1/roles", token, map[string]any{
		"name":  "Content Editor",
		"level": 20,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create role status = %d: %s", rec.Code, rec.Body.String())
	}
	var role rbac.Role
	decodeBody(t, rec, &role)
	if role.Slug != "content-editor" {
		t.Fatalf("slug = %q", role.Slug)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/roles/"+role.ID {
		t.Fatalf("location = %q", loc)
	}

	perm, err := e.rbacSvc.CreatePermission(context.Background(), "Editor Brands Grant", rbac.ModuleBrands, []rbac.Operation{rbac.OpView, rbac.OpEdit})
	if err != nil {
		t.Fatalf("create permission: %v", err)
	}
	rec = e.do(t, http.MethodPut, "/v1/roles/"+role.ID+"/permissions", token, map[string]any{
		"permission_ids": []string{perm.ID},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set permissions status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/v1/roles/"+role.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get role status = %d", rec.Code)
	}
	decodeBody(t, rec, &role)
	if len(role.PermissionIDs) != 1 || role.PermissionIDs[0] != perm.ID {
		t.Fatalf("permission ids = %v", role.PermissionIDs)
	}

	rec = e.do(t, http.MethodDelete, "/v1/roles/"+role.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete role status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/v1/roles/"+role.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted role get status = %d", rec.Code)
	}
}

func TestSystemRoleCannotBeDeleted(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.seedSession(t, adminGrants())

	ctx := context.Background()
	role := &rbac.Role{
		ID:       "role-super",
		Name:     "Super Admin",
		Slug:     rbac.RoleSuperAdmin,
		Level:    100,
		IsSystem: true,
	}
	if err := e.rbacStore.Roles(ctx).Create(ctx, role); err != nil {
		t.Fatalf("seed system role: %v", err)
	}

	rec := e.do(t, http.MethodDelete, "/v1/roles/"+role.ID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("system role delete status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	if _, err := e.rbacSvc.GetRole(ctx, role.ID); err != nil {
		t.Fatalf("system role should survive: %v", err)
	}
}

func TestPermissionValidation(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.seedSession(t, adminGrants())

	rec := e.do(t, http.MethodPost, "/v1/permissions", token, map[string]any{
		"name":       "Bogus",
		"module":     "warehouse",
		"operations": []string{"view"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown module status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/v1/permissions", token, map[string]any{
		"name":       "Orders Grant",
		"module":     rbac.ModuleOrders,
		"operations": []string{"teleport"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown operation status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/v1/permissions", token, map[string]any{
		"name":       "Orders Grant",
		"module":     rbac.ModuleOrders,
		"operations": []string{"view", "export"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid permission status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminProvisioningAndRoleAssignment(t *testing.T) {
	e := newTestEnv(t)
	_, adminToken := e.seedSession(t, adminGrants())

	rec := e.do(t, http.MethodPost, "/v1/admins", adminToken, map[string]any{
		"email":    "new.staff@example.com",
		"username": "newstaff",
		"password": "longenough",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create admin status = %d: %s", rec.Code, rec.Body.String())
	}
	var account rbac.Account
	decodeBody(t, rec, &account)
	if strings.Contains(rec.Body.String(), "password_hash") {
		t.Fatal("password hash leaked in response")
	}

	// Session for the new account: no roles yet, so everything is forbidden.
	token, _, err := e.sessions.Issue(account.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := e.do(t, http.MethodGet, "/v1/brands", token, nil).Code; got != http.StatusForbidden {
		t.Fatalf("no-role access status = %d, want 403", got)
	}

	perm, err := e.rbacSvc.CreatePermission(context.Background(), "Assigned Brands Grant", rbac.ModuleBrands, []rbac.Operation{rbac.OpView})
	if err != nil {
		t.Fatalf("create permission: %v", err)
	}
	role, err := e.rbacSvc.CreateRole(context.Background(), "Brand Viewer", "", 10, []string{perm.ID})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}

	rec = e.do(t, http.MethodPut, "/v1/admins/"+account.ID+"/roles", adminToken, map[string]any{
		"role_ids": []string{role.ID},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("assign roles status = %d: %s", rec.Code, rec.Body.String())
	}

	// The grant takes effect on the very next request.
	if got := e.do(t, http.MethodGet, "/v1/brands", token, nil).Code; got != http.StatusOK {
		t.Fatalf("post-assignment access status = %d, want 200", got)
	}
}

func TestAdminStatusUpdate(t *testing.T) {
	e := newTestEnv(t)
	_, adminToken := e.seedSession(t, adminGrants())
	target, targetToken := e.seedSession(t, map[string][]rbac.Operation{
		rbac.ModuleBrands: {rbac.OpView},
	})

	rec := e.do(t, http.MethodPut, "/v1/admins/"+target.ID+"/status", adminToken, map[string]any{
		"is_active":  true,
		"is_blocked": true,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status update = %d: %s", rec.Code, rec.Body.String())
	}

	if got := e.do(t, http.MethodGet, "/v1/brands", targetToken, nil).Code; got != http.StatusUnauthorized {
		t.Fatalf("blocked account access status = %d, want 401", got)
	}
}

func TestRoleRoutesRequirePermission(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.seedSession(t, map[string][]rbac.Operation{
		rbac.ModuleRoles: {rbac.OpView},
	})

	if got := e.do(t, http.MethodGet, "/v1/roles", token, nil).Code; got != http.StatusOK {
		t.Fatalf("list roles status = %d", got)
	}
	rec := e.do(t, http.MethodPost, "/v1/roles", token, map[string]any{
		"name":  "Nope",
		"level": 5,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create without grant status = %d, want 403", rec.Code)
	}
}
