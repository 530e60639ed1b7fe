package rbac

import (
	"context"
	"fmt"
)

// PermissionCheck is one (module, operation) pair for RequireAnyPermission.
type PermissionCheck struct {
	Module    string
	Operation Operation
}

// RequirePermission passes iff the context carries a principal whose matrix
// grants op on module. A missing principal fails with
// ErrAuthenticationRequired so callers can distinguish 401 from 403.
// The gate never mutates state.
func RequirePermission(ctx context.Context, module string, op Operation) error {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrAuthenticationRequired
	}
	if !principal.HasPermission(module, op) {
		return fmt.Errorf("%w: %s:%s", ErrInsufficientPermission, module, op)
	}
	return nil
}

// RequireRole passes iff the principal holds a role with the given slug.
// Used for coarse checks independent of the permission matrix.
func RequireRole(ctx context.Context, slug string) error {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrAuthenticationRequired
	}
	if !principal.HasRole(slug) {
		return fmt.Errorf("%w: %s", ErrInsufficientRole, slug)
	}
	return nil
}

// RequireAnyPermission passes iff at least one of the checks would pass,
// short-circuiting on the first success.
func RequireAnyPermission(ctx context.Context, checks []PermissionCheck) error {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrAuthenticationRequired
	}
	for _, c := range checks {
		if principal.HasPermission(c.Module, c.Operation) {
			return nil
		}
	}
	return ErrInsufficientPermission
}
