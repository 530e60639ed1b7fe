package rbac

import "time"

// Account is an authenticable back-office principal. Accounts are never
// hard-deleted; the standing flags control usability.
type Account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PasswordHash  string     `json:"-"`
	RoleIDs       []string   `json:"role_ids"`
	IsActive      bool       `json:"is_active"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockReason   string     `json:"block_reason,omitempty"`
	LoginAttempts int        `json:"login_attempts"`
	LockUntil     *time.Time `json:"lock_until,omitempty"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FullName joins the account's first and last name for display.
func (a Account) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Locked reports whether a lock-until timestamp is set and still in the future.
func (a Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// Role is a named bundle of permissions with a privilege level. System roles
// cannot be deleted.
type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	PermissionIDs []string  `json:"permission_ids"`
	Level         int       `json:"level"`
	IsSystem      bool      `json:"is_system"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Permission grants a set of operations within one module. Roles reference
// permissions by identity, so edits propagate live to every role holding one.
type Permission struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Slug       string      `json:"slug"`
	Module     string      `json:"module"`
	Operations []Operation `json:"operations"`
	IsSystem   bool        `json:"is_system"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Allows reports whether the permission covers the operation in its module.
func (p Permission) Allows(module string, op Operation) bool {
	if p.Module != module {
		return false
	}
	for _, o := range p.Operations {
		if o == op {
			return true
		}
	}
	return false
}
