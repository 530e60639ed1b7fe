package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storekeeper.org/internal/ids"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
)

// Service provides the administrative RBAC operations: account provisioning,
// role and permission management, and credential verification. The Resolver
// consumes what this service writes; the two share the Store.
type Service struct {
	store Store
	cache MatrixCache
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceCache lets role/permission mutations invalidate cached matrices.
func WithServiceCache(cache MatrixCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithServiceClock overrides the time source.
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the RBAC service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("rbac: store is required")
	}
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureBuiltins provisions the builtin permission catalog. Existing slugs
// are left untouched so live edits survive restarts.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	perms := make([]Permission, len(BuiltinPermissions))
	copy(perms, BuiltinPermissions)
	for i := range perms {
		perms[i].ID = ids.New()
	}
	return s.store.Permissions(ctx).Ensure(ctx, perms)
}

// Login verifies credentials and maintains the failed-attempt bookkeeping.
// Five consecutive failures lock the account for fifteen minutes.
func (s *Service) Login(ctx context.Context, identifier, password string) (Account, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}
	account, err := s.store.Accounts(ctx).FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, err
	}
	if !account.IsActive {
		return Account{}, ErrAccountInactive
	}
	if account.IsBlocked {
		return Account{}, ErrAccountBlocked
	}
	now := s.now().UTC()
	if account.Locked(now) {
		return Account{}, ErrAccountLocked
	}

	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		attempts := account.LoginAttempts + 1
		var lockUntil *time.Time
		if attempts >= maxLoginAttempts {
			until := now.Add(lockDuration)
			lockUntil = &until
		}
		if err := s.store.Accounts(ctx).RecordLoginFailure(ctx, account.ID, attempts, lockUntil); err != nil {
			return Account{}, err
		}
		if lockUntil != nil {
			return Account{}, ErrAccountLocked
		}
		return Account{}, ErrInvalidCredentials
	}

	if err := s.store.Accounts(ctx).RecordLoginSuccess(ctx, account.ID, now); err != nil {
		return Account{}, err
	}
	account.LoginAttempts = 0
	account.LockUntil = nil
	account.LastLoginAt = &now
	return *account, nil
}

// CreateAccountInput carries the provisioning fields for a new account.
type CreateAccountInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
	RoleIDs   []string
}

// CreateAccount provisions a new account with a hashed password.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Username = strings.TrimSpace(strings.ToLower(in.Username))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Account{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(in.Username) < 3 {
		return Account{}, fmt.Errorf("%w: username must be at least 3 characters", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return Account{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return Account{}, err
	}
	now := s.now().UTC()
	account := &Account{
		ID:           ids.New(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		RoleIDs:      in.RoleIDs,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Accounts(ctx).Create(ctx, account); err != nil {
		return Account{}, err
	}
	return *account, nil
}

// GetAccount loads one account by id.
func (s *Service) GetAccount(ctx context.Context, id string) (Account, error) {
	account, err := s.store.Accounts(ctx).Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return Account{}, err
	}
	return *account, nil
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]*Account, error) {
	return s.store.Accounts(ctx).List(ctx)
}

// SetAccountRoles replaces an account's role assignments. The account's
// cached matrix is dropped so the change takes effect on the next request.
func (s *Service) SetAccountRoles(ctx context.Context, accountID string, roleIDs []string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidInput)
	}
	if err := s.store.Accounts(ctx).SetRoles(ctx, accountID, roleIDs); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, accountID)
	}
	return nil
}

// SetAccountStanding updates the active/blocked flags.
func (s *Service) SetAccountStanding(ctx context.Context, accountID string, active, blocked bool, blockReason string) error {
	account, err := s.store.Accounts(ctx).Find(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return err
	}
	account.IsActive = active
	account.IsBlocked = blocked
	account.BlockReason = strings.TrimSpace(blockReason)
	account.UpdatedAt = s.now().UTC()
	return s.store.Accounts(ctx).Update(ctx, account)
}

// CreateRole creates a non-system role. The slug derives from the name.
func (s *Service) CreateRole(ctx context.Context, name, description string, level int, permissionIDs []string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if level < 1 || level > 100 {
		return Role{}, fmt.Errorf("%w: role level must be within 1..100", ErrInvalidInput)
	}
	now := s.now().UTC()
	role := &Role{
		ID:            ids.New(),
		Name:          name,
		Slug:          Slugify(name),
		Description:   strings.TrimSpace(description),
		PermissionIDs: permissionIDs,
		Level:         level,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Roles(ctx).Create(ctx, role); err != nil {
		return Role{}, err
	}
	return *role, nil
}

// GetRole loads one role by id.
func (s *Service) GetRole(ctx context.Context, id string) (Role, error) {
	role, err := s.store.Roles(ctx).Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return Role{}, err
	}
	return *role, nil
}

// ListRoles returns every role.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.Roles(ctx).List(ctx)
}

// DeleteRole removes a role. System roles are refused; accounts keep their
// now-dangling reference, which the resolver tolerates.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.store.Roles(ctx).Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w: role %s", ErrSystemRecord, role.Slug)
	}
	if err := s.store.Roles(ctx).Delete(ctx, role.ID); err != nil {
		return err
	}
	s.invalidateAll(ctx)
	return nil
}

// SetRolePermissions replaces a role's permission references.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	if err := s.store.Roles(ctx).SetPermissions(ctx, roleID, permissionIDs); err != nil {
		return err
	}
	s.invalidateAll(ctx)
	return nil
}

// CreatePermission adds a permission to the catalog after validating the
// module and operations against the closed sets.
func (s *Service) CreatePermission(ctx context.Context, name, module string, operations []Operation) (Permission, error) {
	name = strings.TrimSpace(name)
	module = strings.TrimSpace(strings.ToLower(module))
	if name == "" {
		return Permission{}, fmt.Errorf("%w: permission name is required", ErrInvalidInput)
	}
	if !KnownModule(module) {
		return Permission{}, fmt.Errorf("%w: unknown module %q", ErrInvalidInput, module)
	}
	if len(operations) == 0 {
		return Permission{}, fmt.Errorf("%w: at least one operation is required", ErrInvalidInput)
	}
	for _, op := range operations {
		if !KnownOperation(op) {
			return Permission{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
		}
	}
	now := s.now().UTC()
	perm := &Permission{
		ID:         ids.New(),
		Name:       name,
		Slug:       Slugify(name),
		Module:     module,
		Operations: operations,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Permissions(ctx).Create(ctx, perm); err != nil {
		return Permission{}, err
	}
	return *perm, nil
}

// ListPermissions returns the whole catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.Permissions(ctx).List(ctx)
}

// UpdatePermission edits a permission in place; the change propagates live to
// every role referencing it, so all cached matrices are dropped.
func (s *Service) UpdatePermission(ctx context.Context, id string, operations []Operation) (Permission, error) {
	perm, err := s.store.Permissions(ctx).Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return Permission{}, err
	}
	for _, op := range operations {
		if !KnownOperation(op) {
			return Permission{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
		}
	}
	perm.Operations = operations
	perm.UpdatedAt = s.now().UTC()
	if err := s.store.Permissions(ctx).Update(ctx, perm); err != nil {
		return Permission{}, err
	}
	s.invalidateAll(ctx)
	return *perm, nil
}

// DeletePermission removes a non-system permission. Roles that still
// reference it keep a dangling id, which the aggregator skips.
func (s *Service) DeletePermission(ctx context.Context, id string) error {
	perm, err := s.store.Permissions(ctx).Find(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if perm.IsSystem {
		return fmt.Errorf("%w: permission %s", ErrSystemRecord, perm.Slug)
	}
	if err := s.store.Permissions(ctx).Delete(ctx, perm.ID); err != nil {
		return err
	}
	s.invalidateAll(ctx)
	return nil
}

func (s *Service) invalidateAll(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}
