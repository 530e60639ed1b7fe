package rbac

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemoryStore implements Store with in-process concurrency safety. It backs
// tests and DSN-less development runs; production uses the Postgres store.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	roles    map[string]*Role
	perms    map[string]*Permission
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[string]*Account),
		roles:    make(map[string]*Role),
		perms:    make(map[string]*Permission),
	}
}

func (s *InMemoryStore) Accounts(ctx context.Context) AccountStore    { return (*memAccounts)(s) }
func (s *InMemoryStore) Roles(ctx context.Context) RoleStore          { return (*memRoles)(s) }
func (s *InMemoryStore) Permissions(ctx context.Context) PermissionStore { return (*memPerms)(s) }

type memAccounts InMemoryStore

func (s *memAccounts) Create(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == a.Email || existing.Username == a.Username {
			return ErrAlreadyExists
		}
	}
	cp := cloneAccount(a)
	s.accounts[a.ID] = cp
	return nil
}

func (s *memAccounts) Find(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *memAccounts) FindByLogin(ctx context.Context, identifier string) (*Account, error) {
	identifier = strings.ToLower(identifier)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Email == identifier || a.Username == identifier {
			return cloneAccount(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memAccounts) List(ctx context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (s *memAccounts) Update(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *memAccounts) SetRoles(ctx context.Context, accountID string, roleIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.RoleIDs = append([]string(nil), roleIDs...)
	return nil
}

func (s *memAccounts) RecordLoginFailure(ctx context.Context, accountID string, attempts int, lockUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.LoginAttempts = attempts
	a.LockUntil = lockUntil
	return nil
}

func (s *memAccounts) RecordLoginSuccess(ctx context.Context, accountID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return ErrNotFound
	}
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLoginAt = &at
	return nil
}

type memRoles InMemoryStore

func (s *memRoles) Create(ctx context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Slug == r.Slug {
			return ErrAlreadyExists
		}
	}
	s.roles[r.ID] = cloneRole(r)
	return nil
}

func (s *memRoles) Find(ctx context.Context, id string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRole(r), nil
}

func (s *memRoles) FindBySlug(ctx context.Context, slug string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Slug == slug {
			return cloneRole(r), nil
		}
	}
	return nil, ErrNotFound
}

// FindMany skips ids that no longer resolve: dangling references are
// tolerated, not errors.
func (s *memRoles) FindMany(ctx context.Context, roleIDs []string) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		if r, ok := s.roles[id]; ok {
			out = append(out, *cloneRole(r))
		}
	}
	return out, nil
}

func (s *memRoles) List(ctx context.Context) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, *cloneRole(r))
	}
	return out, nil
}

func (s *memRoles) Update(ctx context.Context, r *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID]; !ok {
		return ErrNotFound
	}
	s.roles[r.ID] = cloneRole(r)
	return nil
}

func (s *memRoles) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return ErrNotFound
	}
	if r.IsSystem {
		return ErrSystemRecord
	}
	delete(s.roles, id)
	return nil
}

func (s *memRoles) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[roleID]
	if !ok {
		return ErrNotFound
	}
	r.PermissionIDs = append([]string(nil), permissionIDs...)
	return nil
}

type memPerms InMemoryStore

func (s *memPerms) Create(ctx context.Context, p *Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.perms {
		if existing.Slug == p.Slug {
			return ErrAlreadyExists
		}
	}
	s.perms[p.ID] = clonePermission(p)
	return nil
}

func (s *memPerms) Find(ctx context.Context, id string) (*Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.perms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePermission(p), nil
}

func (s *memPerms) FindBySlug(ctx context.Context, slug string) (*Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.perms {
		if p.Slug == slug {
			return clonePermission(p), nil
		}
	}
	return nil, ErrNotFound
}

// FindManyByRole resolves each role's permission references, silently
// skipping deleted permissions.
func (s *memPerms) FindManyByRole(ctx context.Context, roleIDs []string) (map[string][]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Permission, len(roleIDs))
	for _, roleID := range roleIDs {
		role, ok := s.roles[roleID]
		if !ok {
			continue
		}
		for _, permID := range role.PermissionIDs {
			if p, ok := s.perms[permID]; ok {
				out[roleID] = append(out[roleID], *clonePermission(p))
			}
		}
	}
	return out, nil
}

func (s *memPerms) List(ctx context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, *clonePermission(p))
	}
	return out, nil
}

func (s *memPerms) Update(ctx context.Context, p *Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.perms[p.ID]; !ok {
		return ErrNotFound
	}
	s.perms[p.ID] = clonePermission(p)
	return nil
}

func (s *memPerms) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.perms[id]
	if !ok {
		return ErrNotFound
	}
	if p.IsSystem {
		return ErrSystemRecord
	}
	delete(s.perms, id)
	return nil
}

func (s *memPerms) Ensure(ctx context.Context, perms []Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := make(map[string]bool, len(s.perms))
	for _, p := range s.perms {
		existing[p.Slug] = true
	}
	for i := range perms {
		if existing[perms[i].Slug] {
			continue
		}
		s.perms[perms[i].ID] = clonePermission(&perms[i])
	}
	return nil
}

func cloneAccount(a *Account) *Account {
	cp := *a
	cp.RoleIDs = append([]string(nil), a.RoleIDs...)
	if a.LockUntil != nil {
		t := *a.LockUntil
		cp.LockUntil = &t
	}
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		cp.LastLoginAt = &t
	}
	return &cp
}

func cloneRole(r *Role) *Role {
	cp := *r
	cp.PermissionIDs = append([]string(nil), r.PermissionIDs...)
	return &cp
}

func clonePermission(p *Permission) *Permission {
	cp := *p
	cp.Operations = append([]Operation(nil), p.Operations...)
	return &cp
}
