package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"storekeeper.org/internal/rbac"
)

type createRoleRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Level         int      `json:"level"`
	PermissionIDs []string `json:"permission_ids"`
}

type setRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

type createPermissionRequest struct {
	Name       string           `json:"name"`
	Module     string           `json:"module"`
	Operations []rbac.Operation `json:"operations"`
}

type updatePermissionRequest struct {
	Operations []rbac.Operation `json:"operations"`
}

type createAdminRequest struct {
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Password  string   `json:"password"`
	RoleIDs   []string `json:"role_ids"`
}

type setAdminRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type setAdminStandingRequest struct {
	IsActive    bool   `json:"is_active"`
	IsBlocked   bool   `json:"is_blocked"`
	BlockReason string `json:"block_reason"`
}

// --- roles ---

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleRoles, rbac.OpView) {
			return
		}
		roles, err := a.rbac.ListRoles(r.Context())
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": roles})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModuleRoles, rbac.OpAdd) {
			return
		}
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.rbac.CreateRole(r.Context(), req.Name, req.Description, req.Level, req.PermissionIDs)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.role.create", map[string]any{
			"role_id": role.ID,
			"slug":    role.Slug,
		})
		w.Header().Set("Location", "/v1/roles/"+role.ID)
		writeJSON(w, http.StatusCreated, role)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/roles/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if sub == "permissions" {
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleRoles, rbac.OpEdit) {
			return
		}
		var req setRolePermissionsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.rbac.SetRolePermissions(r.Context(), id, req.PermissionIDs); err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.role.permissions.set", map[string]any{
			"role_id": id,
			"count":   len(req.PermissionIDs),
		})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if sub != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleRoles, rbac.OpView) {
			return
		}
		role, err := a.rbac.GetRole(r.Context(), id)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, rbac.ModuleRoles, rbac.OpDelete) {
			return
		}
		if err := a.rbac.DeleteRole(r.Context(), id); err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.role.delete", map[string]any{"role_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

// --- permissions ---

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModulePermissions, rbac.OpView) {
			return
		}
		perms, err := a.rbac.ListPermissions(r.Context())
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": perms})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModulePermissions, rbac.OpAdd) {
			return
		}
		var req createPermissionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		perm, err := a.rbac.CreatePermission(r.Context(), req.Name, req.Module, req.Operations)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.permission.create", map[string]any{
			"permission_id": perm.ID,
			"module":        perm.Module,
		})
		w.Header().Set("Location", "/v1/permissions/"+perm.ID)
		writeJSON(w, http.StatusCreated, perm)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePermissionResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/permissions/")
	if !ok || sub != "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		if !a.ensurePermission(w, r, rbac.ModulePermissions, rbac.OpEdit) {
			return
		}
		var req updatePermissionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		perm, err := a.rbac.UpdatePermission(r.Context(), id, req.Operations)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.permission.update", map[string]any{
			"permission_id": perm.ID,
		})
		writeJSON(w, http.StatusOK, perm)
	case http.MethodDelete:
		if !a.ensurePermission(w, r, rbac.ModulePermissions, rbac.OpDelete) {
			return
		}
		if err := a.rbac.DeletePermission(r.Context(), id); err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.permission.delete", map[string]any{"permission_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

// --- admins ---

func (a *API) handleAdmins(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.ensurePermission(w, r, rbac.ModuleAdmins, rbac.OpView) {
			return
		}
		accounts, err := a.rbac.ListAccounts(r.Context())
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": accounts})
	case http.MethodPost:
		if !a.ensurePermission(w, r, rbac.ModuleAdmins, rbac.OpAdd) {
			return
		}
		var req createAdminRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		account, err := a.rbac.CreateAccount(r.Context(), rbac.CreateAccountInput{
			Email:     req.Email,
			Username:  req.Username,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Password:  req.Password,
			RoleIDs:   req.RoleIDs,
		})
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.admin.create", map[string]any{
			"admin_id": account.ID,
			"email":    account.Email,
		})
		w.Header().Set("Location", "/v1/admins/"+account.ID)
		writeJSON(w, http.StatusCreated, account)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAdminResource(w http.ResponseWriter, r *http.Request) {
	id, sub, ok := splitResourcePath(r.URL.Path, "/v1/admins/")
	if !ok {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleAdmins, rbac.OpView) {
			return
		}
		account, err := a.rbac.GetAccount(r.Context(), id)
		if err != nil {
			handleRBACError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	case "roles":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleAdmins, rbac.OpEdit) {
			return
		}
		var req setAdminRolesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.rbac.SetAccountRoles(r.Context(), id, req.RoleIDs); err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.admin.roles.set", map[string]any{
			"admin_id": id,
			"count":    len(req.RoleIDs),
		})
		w.WriteHeader(http.StatusNoContent)
	case "status":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		if !a.ensurePermission(w, r, rbac.ModuleAdmins, rbac.OpEdit) {
			return
		}
		var req setAdminStandingRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err := a.rbac.SetAccountStanding(r.Context(), id, req.IsActive, req.IsBlocked, req.BlockReason); err != nil {
			handleRBACError(w, r, err)
			return
		}
		a.audit(r.Context(), "rbac.admin.status.set", map[string]any{
			"admin_id":   id,
			"is_active":  req.IsActive,
			"is_blocked": req.IsBlocked,
		})
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// splitResourcePath extracts the id and optional trailing segment from an
// item route like /v1/roles/{id}/permissions.
func splitResourcePath(path, prefix string) (id, sub string, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	}
	return "", "", false
}

func handleRBACError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rbac.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, rbac.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, rbac.ErrSystemRecord):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, rbac.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "rbac operation failed")
	}
}
