package rbac

import "strings"

// Operation is one action within a module.
type Operation string

const (
	OpView   Operation = "view"
	OpAdd    Operation = "add"
	OpEdit   Operation = "edit"
	OpDelete Operation = "delete"
	OpExport Operation = "export"
	OpImport Operation = "import"
)

// AllOperations lists every operation in canonical order.
var AllOperations = []Operation{OpView, OpAdd, OpEdit, OpDelete, OpExport, OpImport}

// KnownOperation reports whether op belongs to the closed operation set.
func KnownOperation(op Operation) bool {
	for _, o := range AllOperations {
		if o == op {
			return true
		}
	}
	return false
}

// Functional areas of the back office. Permissions target exactly one module.
const (
	ModuleDashboard   = "dashboard"
	ModuleProducts    = "products"
	ModuleCategories  = "categories"
	ModuleBrands      = "brands"
	ModuleCustomers   = "customers"
	ModuleOrders      = "orders"
	ModuleReviews     = "reviews"
	ModuleCoupons     = "coupons"
	ModuleBanners     = "banners"
	ModuleFaqs        = "faqs"
	ModuleSettings    = "settings"
	ModuleAdmins      = "admins"
	ModuleRoles       = "roles"
	ModulePermissions = "permissions"
	ModuleReports     = "reports"
	ModuleAnalytics   = "analytics"
)

// AllModules lists the closed module catalog.
var AllModules = []string{
	ModuleDashboard,
	ModuleProducts,
	ModuleCategories,
	ModuleBrands,
	ModuleCustomers,
	ModuleOrders,
	ModuleReviews,
	ModuleCoupons,
	ModuleBanners,
	ModuleFaqs,
	ModuleSettings,
	ModuleAdmins,
	ModuleRoles,
	ModulePermissions,
	ModuleReports,
	ModuleAnalytics,
}

// KnownModule reports whether module belongs to the closed catalog.
func KnownModule(module string) bool {
	for _, m := range AllModules {
		if m == module {
			return true
		}
	}
	return false
}

// Well-known role slugs seeded at provisioning.
const (
	RoleSuperAdmin = "super-admin"
	RoleManager    = "manager"
	RoleEditor     = "editor"
	RoleViewer     = "viewer"
)

// Slugify derives the unique permission/role slug from a display name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// BuiltinPermissions are the system permissions provisioned on first run:
// one full-access grant per managed module, view-only grants for the
// read-only surfaces.
var BuiltinPermissions = func() []Permission {
	full := []Operation{OpView, OpAdd, OpEdit, OpDelete, OpExport, OpImport}
	viewOnly := []Operation{OpView}

	specs := []struct {
		name   string
		module string
		ops    []Operation
	}{
		{"Dashboard Access", ModuleDashboard, viewOnly},
		{"Products Management", ModuleProducts, full},
		{"Categories Management", ModuleCategories, full},
		{"Brands Management", ModuleBrands, full},
		{"Customers Management", ModuleCustomers, full},
		{"Orders Management", ModuleOrders, full},
		{"Reviews Management", ModuleReviews, full},
		{"Coupons Management", ModuleCoupons, full},
		{"Banners Management", ModuleBanners, full},
		{"Faqs Management", ModuleFaqs, full},
		{"Settings Management", ModuleSettings, []Operation{OpView, OpEdit}},
		{"Admins Management", ModuleAdmins, full},
		{"Roles Management", ModuleRoles, full},
		{"Permissions Management", ModulePermissions, full},
		{"Reports Access", ModuleReports, []Operation{OpView, OpExport}},
		{"Analytics Access", ModuleAnalytics, viewOnly},
	}

	perms := make([]Permission, 0, len(specs))
	for _, s := range specs {
		perms = append(perms, Permission{
			Name:       s.name,
			Slug:       Slugify(s.name),
			Module:     s.module,
			Operations: s.ops,
			IsSystem:   true,
		})
	}
	return perms
}()
