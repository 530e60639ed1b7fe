package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storekeeper.org/internal/rbac"
)

type accountStore struct {
	db *sql.DB
}

const accountColumns = `id, email, username, first_name, last_name, password_hash,
	is_active, is_blocked, block_reason, login_attempts, lock_until, last_login_at,
	created_at, updated_at`

func scanAccount(row interface{ Scan(dest ...any) error }) (*rbac.Account, error) {
	var (
		a           rbac.Account
		blockReason sql.NullString
		lockUntil   sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName, &a.PasswordHash,
		&a.IsActive, &a.IsBlocked, &blockReason, &a.LoginAttempts, &lockUntil, &lastLogin,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if blockReason.Valid {
		a.BlockReason = blockReason.String
	}
	if lockUntil.Valid {
		t := lockUntil.Time
		a.LockUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}

func (s *accountStore) Create(ctx context.Context, a *rbac.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into admins (id, email, username, first_name, last_name, password_hash,
			is_active, is_blocked, block_reason, login_attempts, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, a.ID, a.Email, a.Username, a.FirstName, a.LastName, a.PasswordHash,
		a.IsActive, a.IsBlocked, nullIfEmpty(a.BlockReason), a.LoginAttempts,
		a.CreatedAt, a.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	for _, roleID := range a.RoleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into admin_roles (admin_id, role_id) values ($1, $2)
		`, a.ID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *accountStore) Find(ctx context.Context, id string) (*rbac.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from admins where id = $1`, id))
	if err != nil {
		return nil, err
	}
	a.RoleIDs, err = s.roleIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountStore) FindByLogin(ctx context.Context, identifier string) (*rbac.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from admins where lower(email) = lower($1) or lower(username) = lower($1)`,
		identifier))
	if err != nil {
		return nil, err
	}
	a.RoleIDs, err = s.roleIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *accountStore) List(ctx context.Context) ([]*rbac.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from admins order by email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*rbac.Account
	byID := make(map[string]*rbac.Account)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignRows, err := s.db.QueryContext(ctx,
		`select admin_id, role_id from admin_roles order by role_id`)
	if err != nil {
		return nil, err
	}
	defer assignRows.Close()
	for assignRows.Next() {
		var adminID, roleID string
		if err := assignRows.Scan(&adminID, &roleID); err != nil {
			return nil, err
		}
		if a, ok := byID[adminID]; ok {
			a.RoleIDs = append(a.RoleIDs, roleID)
		}
	}
	if err := assignRows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *accountStore) Update(ctx context.Context, a *rbac.Account) error {
	res, err := s.db.ExecContext(ctx, `
		update admins set email = $2, username = $3, first_name = $4, last_name = $5,
			password_hash = $6, is_active = $7, is_blocked = $8, block_reason = $9,
			login_attempts = $10, lock_until = $11, last_login_at = $12, updated_at = $13
		where id = $1
	`, a.ID, a.Email, a.Username, a.FirstName, a.LastName, a.PasswordHash,
		a.IsActive, a.IsBlocked, nullIfEmpty(a.BlockReason), a.LoginAttempts,
		nullIfZeroTime(a.LockUntil), nullIfZeroTime(a.LastLoginAt), a.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	return requireAffected(res)
}

func (s *accountStore) SetRoles(ctx context.Context, accountID string, roleIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `select 1 from admins where id = $1`, accountID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from admin_roles where admin_id = $1`, accountID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into admin_roles (admin_id, role_id) values ($1, $2)
		`, accountID, roleID); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return fmt.Errorf("%w: role %s", rbac.ErrNotFound, roleID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *accountStore) RecordLoginFailure(ctx context.Context, accountID string, attempts int, lockUntil *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update admins set login_attempts = $2, lock_until = $3, updated_at = now()
		where id = $1
	`, accountID, attempts, nullIfZeroTime(lockUntil))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *accountStore) RecordLoginSuccess(ctx context.Context, accountID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		update admins set login_attempts = 0, lock_until = null, last_login_at = $2, updated_at = now()
		where id = $1
	`, accountID, at)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *accountStore) roleIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select role_id from admin_roles where admin_id = $1 order by role_id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type roleStore struct {
	db *sql.DB
}

const roleColumns = `id, name, slug, description, level, is_system, created_at, updated_at`

func scanRole(row interface{ Scan(dest ...any) error }) (*rbac.Role, error) {
	var (
		r    rbac.Role
		desc sql.NullString
	)
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &desc, &r.Level, &r.IsSystem, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		r.Description = desc.String
	}
	return &r, nil
}

func (s *roleStore) Create(ctx context.Context, r *rbac.Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into roles (id, name, slug, description, level, is_system, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.ID, r.Name, r.Slug, nullIfEmpty(r.Description), r.Level, r.IsSystem,
		r.CreatedAt, r.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	for _, permID := range r.PermissionIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id) values ($1, $2)
		`, r.ID, permID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *roleStore) Find(ctx context.Context, id string) (*rbac.Role, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where id = $1`, id))
	if err != nil {
		return nil, err
	}
	r.PermissionIDs, err = s.permissionIDs(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *roleStore) FindBySlug(ctx context.Context, slug string) (*rbac.Role, error) {
	r, err := scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where slug = $1`, slug))
	if err != nil {
		return nil, err
	}
	r.PermissionIDs, err = s.permissionIDs(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindMany resolves the given ids, silently skipping ones that no longer
// exist so dangling account assignments contribute nothing.
func (s *roleStore) FindMany(ctx context.Context, ids []string) ([]rbac.Role, error) {
	var roles []rbac.Role
	for _, id := range ids {
		r, err := s.Find(ctx, id)
		if err != nil {
			if errors.Is(err, rbac.ErrNotFound) {
				continue
			}
			return nil, err
		}
		roles = append(roles, *r)
	}
	return roles, nil
}

func (s *roleStore) List(ctx context.Context) ([]rbac.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+roleColumns+` from roles order by level desc, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []rbac.Role
	byID := make(map[string]int)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = len(roles)
		roles = append(roles, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	permRows, err := s.db.QueryContext(ctx,
		`select role_id, permission_id from role_permissions order by permission_id`)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID, permID string
		if err := permRows.Scan(&roleID, &permID); err != nil {
			return nil, err
		}
		if i, ok := byID[roleID]; ok {
			roles[i].PermissionIDs = append(roles[i].PermissionIDs, permID)
		}
	}
	if err := permRows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *roleStore) Update(ctx context.Context, r *rbac.Role) error {
	res, err := s.db.ExecContext(ctx, `
		update roles set name = $2, slug = $3, description = $4, level = $5, updated_at = $6
		where id = $1
	`, r.ID, r.Name, r.Slug, nullIfEmpty(r.Description), r.Level, r.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	return requireAffected(res)
}

func (s *roleStore) Delete(ctx context.Context, id string) error {
	var isSystem bool
	err := s.db.QueryRowContext(ctx, `select is_system from roles where id = $1`, id).Scan(&isSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return rbac.ErrNotFound
	}
	if err != nil {
		return err
	}
	if isSystem {
		return rbac.ErrSystemRecord
	}
	res, err := s.db.ExecContext(ctx, `delete from roles where id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *roleStore) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `select 1 from roles where id = $1`, roleID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rbac.ErrNotFound
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id = $1`, roleID); err != nil {
		return err
	}
	for _, permID := range permissionIDs {
		if _, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id) values ($1, $2)
		`, roleID, permID); err != nil {
			if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
				return fmt.Errorf("%w: permission %s", rbac.ErrNotFound, permID)
			}
			return err
		}
	}
	return tx.Commit()
}

func (s *roleStore) permissionIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select permission_id from role_permissions where role_id = $1 order by permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type permissionStore struct {
	db *sql.DB
}

const permissionColumns = `id, name, slug, module, operations, is_system, created_at, updated_at`

func scanPermission(row interface{ Scan(dest ...any) error }) (*rbac.Permission, error) {
	var (
		p      rbac.Permission
		rawOps []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Module, &rawOps, &p.IsSystem, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rbac.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rawOps) > 0 {
		if err := json.Unmarshal(rawOps, &p.Operations); err != nil {
			return nil, fmt.Errorf("decode operations: %w", err)
		}
	}
	return &p, nil
}

func (s *permissionStore) Create(ctx context.Context, p *rbac.Permission) error {
	ops, err := json.Marshal(p.Operations)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		insert into permissions (id, name, slug, module, operations, is_system, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.Slug, p.Module, ops, p.IsSystem, p.CreatedAt, p.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *permissionStore) Find(ctx context.Context, id string) (*rbac.Permission, error) {
	return scanPermission(s.db.QueryRowContext(ctx,
		`select `+permissionColumns+` from permissions where id = $1`, id))
}

func (s *permissionStore) FindBySlug(ctx context.Context, slug string) (*rbac.Permission, error) {
	return scanPermission(s.db.QueryRowContext(ctx,
		`select `+permissionColumns+` from permissions where slug = $1`, slug))
}

// FindManyByRole loads each role's permissions through the join table.
// Dangling permission references simply produce no rows.
func (s *permissionStore) FindManyByRole(ctx context.Context, roleIDs []string) (map[string][]rbac.Permission, error) {
	result := make(map[string][]rbac.Permission, len(roleIDs))
	for _, roleID := range roleIDs {
		rows, err := s.db.QueryContext(ctx, `
			select p.id, p.name, p.slug, p.module, p.operations, p.is_system, p.created_at, p.updated_at
			from role_permissions rp
			join permissions p on p.id = rp.permission_id
			where rp.role_id = $1
			order by p.slug
		`, roleID)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			p, err := scanPermission(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			result[roleID] = append(result[roleID], *p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return result, nil
}

func (s *permissionStore) List(ctx context.Context) ([]rbac.Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+permissionColumns+` from permissions order by module, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []rbac.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *p)
	}
	return perms, rows.Err()
}

func (s *permissionStore) Update(ctx context.Context, p *rbac.Permission) error {
	ops, err := json.Marshal(p.Operations)
	if err != nil {
		return fmt.Errorf("marshal operations: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		update permissions set name = $2, slug = $3, module = $4, operations = $5, updated_at = $6
		where id = $1
	`, p.ID, p.Name, p.Slug, p.Module, ops, p.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return rbac.ErrAlreadyExists
		}
		return err
	}
	return requireAffected(res)
}

func (s *permissionStore) Delete(ctx context.Context, id string) error {
	var isSystem bool
	err := s.db.QueryRowContext(ctx, `select is_system from permissions where id = $1`, id).Scan(&isSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return rbac.ErrNotFound
	}
	if err != nil {
		return err
	}
	if isSystem {
		return rbac.ErrSystemRecord
	}
	res, err := s.db.ExecContext(ctx, `delete from permissions where id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Ensure inserts catalog records whose slug is absent; existing rows keep
// their live edits.
func (s *permissionStore) Ensure(ctx context.Context, perms []rbac.Permission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range perms {
		ops, err := json.Marshal(p.Operations)
		if err != nil {
			return fmt.Errorf("marshal operations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			insert into permissions (id, name, slug, module, operations, is_system, created_at, updated_at)
			values ($1, $2, $3, $4, $5, $6, now(), now())
			on conflict (slug) do nothing
		`, p.ID, p.Name, p.Slug, p.Module, ops, p.IsSystem); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return rbac.ErrNotFound
	}
	return nil
}
