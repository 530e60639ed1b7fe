package rbac

import (
	"context"
	"time"
)

// Store describes the persistence operations the RBAC core needs. All loads
// are explicit two-phase fetches returning values, never lazy proxies.
type Store interface {
	Accounts(ctx context.Context) AccountStore
	Roles(ctx context.Context) RoleStore
	Permissions(ctx context.Context) PermissionStore
}

// AccountStore manages authenticable principals.
type AccountStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	// FindByLogin matches either email or username, case-insensitively.
	FindByLogin(ctx context.Context, identifier string) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	Update(ctx context.Context, a *Account) error
	SetRoles(ctx context.Context, accountID string, roleIDs []string) error
	// RecordLoginFailure persists attempt bookkeeping; lockUntil is nil while
	// the account is below the lockout threshold.
	RecordLoginFailure(ctx context.Context, accountID string, attempts int, lockUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, accountID string, at time.Time) error
}

// RoleStore manages roles. Delete must refuse system roles; FindMany skips
// ids that no longer resolve so dangling account references stay harmless.
type RoleStore interface {
	Create(ctx context.Context, r *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindBySlug(ctx context.Context, slug string) (*Role, error)
	FindMany(ctx context.Context, ids []string) ([]Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, r *Role) error
	Delete(ctx context.Context, id string) error
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
}

// PermissionStore manages the permission catalog. FindManyByRole skips
// dangling references the same way RoleStore.FindMany does.
type PermissionStore interface {
	Create(ctx context.Context, p *Permission) error
	Find(ctx context.Context, id string) (*Permission, error)
	FindBySlug(ctx context.Context, slug string) (*Permission, error)
	FindManyByRole(ctx context.Context, roleIDs []string) (map[string][]Permission, error)
	List(ctx context.Context) ([]Permission, error)
	Update(ctx context.Context, p *Permission) error
	Delete(ctx context.Context, id string) error
	// Ensure provisions the builtin catalog, inserting records whose slug is
	// not present yet and leaving existing ones untouched.
	Ensure(ctx context.Context, perms []Permission) error
}
