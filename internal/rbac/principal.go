package rbac

// Principal is a resolved, currently-valid identity together with its
// effective permission matrix. It is a value: once resolved it never reloads.
type Principal struct {
	Account Account
	Roles   []Role
	Matrix  Matrix
}

// HasPermission reports whether the matrix grants op on module.
func (p Principal) HasPermission(module string, op Operation) bool {
	return p.Matrix.Allows(module, op)
}

// HasRole reports whether the principal holds a role with the given slug.
func (p Principal) HasRole(slug string) bool {
	for _, role := range p.Roles {
		if role.Slug == slug {
			return true
		}
	}
	return false
}

// IsSuper reports whether the principal holds the super-admin role.
func (p Principal) IsSuper() bool {
	return p.HasRole(RoleSuperAdmin)
}

// MaxLevel returns the highest privilege level across the principal's roles,
// zero when it has none.
func (p Principal) MaxLevel() int {
	max := 0
	for _, role := range p.Roles {
		if role.Level > max {
			max = role.Level
		}
	}
	return max
}
