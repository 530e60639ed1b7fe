package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"storekeeper.org/internal/ids"
)

func newTestService(t *testing.T, store *InMemoryStore, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := NewService(store, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginSuccessResetsBookkeeping(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	svc := newTestService(t, store)

	created, err := svc.CreateAccount(ctx, CreateAccountInput{
		Email:    "staff@example.com",
		Username: "staff",
		Password: "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	// A prior failure leaves a non-zero counter behind.
	if err := store.Accounts(ctx).RecordLoginFailure(ctx, created.ID, 3, nil); err != nil {
		t.Fatalf("seed failure: %v", err)
	}

	account, err := svc.Login(ctx, "STAFF@example.com", "long-enough-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if account.LoginAttempts != 0 {
		t.Fatalf("expected attempts reset, got %d", account.LoginAttempts)
	}
	if account.LastLoginAt == nil {
		t.Fatal("expected last login timestamp")
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, store, WithServiceClock(func() time.Time { return now }))

	created, err := svc.CreateAccount(ctx, CreateAccountInput{
		Email:    "staff@example.com",
		Username: "staff",
		Password: "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	for i := 0; i < maxLoginAttempts-1; i++ {
		if _, err := svc.Login(ctx, "staff", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	// The fifth failure trips the lock.
	if _, err := svc.Login(ctx, "staff", "wrong"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked on final attempt, got %v", err)
	}

	// Even with the right password the lock holds until it expires.
	if _, err := svc.Login(ctx, "staff", "long-enough-pass"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked while locked, got %v", err)
	}

	now = now.Add(lockDuration + time.Second)
	account, err := svc.Login(ctx, "staff", "long-enough-pass")
	if err != nil {
		t.Fatalf("login after lock expiry: %v", err)
	}
	if account.ID != created.ID {
		t.Fatalf("unexpected account %s", account.ID)
	}
}

func TestLoginUnknownIdentifier(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(t, store)
	if _, err := svc.Login(context.Background(), "ghost", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDeleteRoleProtectsSystemRoles(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	svc := newTestService(t, store)

	system := &Role{ID: ids.New(), Name: "Super Admin", Slug: RoleSuperAdmin, Level: 100, IsSystem: true}
	if err := store.Roles(ctx).Create(ctx, system); err != nil {
		t.Fatalf("seed system role: %v", err)
	}
	if err := svc.DeleteRole(ctx, system.ID); !errors.Is(err, ErrSystemRecord) {
		t.Fatalf("expected ErrSystemRecord, got %v", err)
	}

	normal, err := svc.CreateRole(ctx, "Content Editor", "", 40, nil)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := svc.DeleteRole(ctx, normal.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
}

func TestDeleteRoleLeavesDanglingAssignmentsUsable(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	svc := newTestService(t, store)

	role, err := svc.CreateRole(ctx, "Temp Role", "", 20, nil)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	account, err := svc.CreateAccount(ctx, CreateAccountInput{
		Email:    "staff@example.com",
		Username: "staff",
		Password: "long-enough-pass",
		RoleIDs:  []string{role.ID},
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if err := svc.DeleteRole(ctx, role.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	// Deletion does not cascade; resolution tolerates the dangling id and
	// yields an empty matrix.
	resolver, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	principal, err := resolver.Resolve(ctx, account.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(principal.Roles) != 0 || len(principal.Matrix) != 0 {
		t.Fatalf("expected empty principal grants, got %+v", principal)
	}
}

func TestCreatePermissionValidatesCatalog(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewInMemoryStore())

	if _, err := svc.CreatePermission(ctx, "X", "warehouse", []Operation{OpView}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown module must be rejected, got %v", err)
	}
	if _, err := svc.CreatePermission(ctx, "X", ModuleOrders, []Operation{"approve"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown operation must be rejected, got %v", err)
	}
	perm, err := svc.CreatePermission(ctx, "Orders View Only", ModuleOrders, []Operation{OpView})
	if err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	if perm.Slug != "orders-view-only" {
		t.Fatalf("unexpected slug %q", perm.Slug)
	}
}

func TestEnsureBuiltinsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	svc := newTestService(t, store)

	if err := svc.EnsureBuiltins(ctx); err != nil {
		t.Fatalf("first EnsureBuiltins: %v", err)
	}
	first, err := svc.ListPermissions(ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	if err := svc.EnsureBuiltins(ctx); err != nil {
		t.Fatalf("second EnsureBuiltins: %v", err)
	}
	second, err := svc.ListPermissions(ctx)
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("expected idempotent catalog, got %d then %d", len(first), len(second))
	}
}

func TestMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	cache := newCountingCache()
	svc := newTestService(t, store, WithServiceCache(cache))

	role, err := svc.CreateRole(ctx, "Editor", "", 40, nil)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	account, err := svc.CreateAccount(ctx, CreateAccountInput{
		Email:    "a@example.com",
		Username: "abc",
		Password: "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	cache.Set(ctx, account.ID, Matrix{})
	if err := svc.SetAccountRoles(ctx, account.ID, []string{role.ID}); err != nil {
		t.Fatalf("SetAccountRoles: %v", err)
	}
	if _, ok := cache.entries[account.ID]; ok {
		t.Fatal("SetAccountRoles must drop the account's cached matrix")
	}

	cache.Set(ctx, account.ID, Matrix{})
	if err := svc.SetRolePermissions(ctx, role.ID, nil); err != nil {
		t.Fatalf("SetRolePermissions: %v", err)
	}
	if len(cache.entries) != 0 {
		t.Fatal("SetRolePermissions must drop every cached matrix")
	}
}
