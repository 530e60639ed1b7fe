package rbac

import (
	"context"
	"errors"
	"time"
)

// Resolver turns a session-held account identifier into a validated
// Principal. It performs the full standing check sequence on every request;
// only the permission-matrix computation is cacheable.
type Resolver struct {
	store Store
	cache MatrixCache
	now   func() time.Time
}

// ResolverOption configures Resolver behavior.
type ResolverOption func(*Resolver)

// WithMatrixCache enables the shared permission-matrix cache.
func WithMatrixCache(cache MatrixCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithResolverClock overrides the time source, useful for lockout tests.
func WithResolverClock(fn func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("rbac: store is required")
	}
	r := &Resolver{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve validates the account's standing and materializes its effective
// permission matrix. The checks short-circuit in a fixed order: existence,
// active flag, blocked flag, lock expiry. Any failure means the caller must
// drop the session-held identity.
func (r *Resolver) Resolve(ctx context.Context, accountID string) (Principal, error) {
	account, err := r.store.Accounts(ctx).Find(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrAccountNotFound
		}
		return Principal{}, err
	}
	if !account.IsActive {
		return Principal{}, ErrAccountInactive
	}
	if account.IsBlocked {
		return Principal{}, ErrAccountBlocked
	}
	if account.Locked(r.now()) {
		return Principal{}, ErrAccountLocked
	}

	// Roles whose ids dangle (deleted but still referenced) are skipped by
	// the store and contribute no permissions.
	roles, err := r.store.Roles(ctx).FindMany(ctx, account.RoleIDs)
	if err != nil {
		return Principal{}, err
	}

	matrix, err := r.matrixFor(ctx, account.ID, roles)
	if err != nil {
		return Principal{}, err
	}

	return Principal{Account: *account, Roles: roles, Matrix: matrix}, nil
}

func (r *Resolver) matrixFor(ctx context.Context, accountID string, roles []Role) (Matrix, error) {
	if r.cache != nil {
		if matrix, ok := r.cache.Get(ctx, accountID); ok {
			return matrix, nil
		}
	}

	roleIDs := make([]string, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	permsByRole, err := r.store.Permissions(ctx).FindManyByRole(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	matrix := BuildMatrix(roles, permsByRole)

	if r.cache != nil {
		r.cache.Set(ctx, accountID, matrix)
	}
	return matrix, nil
}
