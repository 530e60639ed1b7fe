package rbac

import (
	"encoding/json"
	"sort"
)

// OperationSet is the set of operations granted within one module.
type OperationSet map[Operation]struct{}

// Contains reports whether op is in the set.
func (s OperationSet) Contains(op Operation) bool {
	_, ok := s[op]
	return ok
}

// Sorted returns the operations in canonical catalog order.
func (s OperationSet) Sorted() []Operation {
	out := make([]Operation, 0, len(s))
	for _, op := range AllOperations {
		if s.Contains(op) {
			out = append(out, op)
		}
	}
	return out
}

// MarshalJSON renders the set as an ordered array.
func (s OperationSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// Matrix maps a module to the operations the principal may perform there.
// Aggregation is strictly additive: there is no deny rule, so no role can
// suppress a grant contributed by another role.
type Matrix map[string]OperationSet

// Allows reports whether the matrix grants op on module.
func (m Matrix) Allows(module string, op Operation) bool {
	ops, ok := m[module]
	return ok && ops.Contains(op)
}

// Modules returns the accessible module names, sorted.
func (m Matrix) Modules() []string {
	out := make([]string, 0, len(m))
	for mod := range m {
		out = append(out, mod)
	}
	sort.Strings(out)
	return out
}

// BuildMatrix unions the permissions of every supplied role into one matrix.
// Roles whose permission references dangle contribute nothing for the missing
// permissions; callers pass only the permissions the store actually found.
func BuildMatrix(roles []Role, permsByRole map[string][]Permission) Matrix {
	matrix := make(Matrix)
	for _, role := range roles {
		for _, perm := range permsByRole[role.ID] {
			if perm.Module == "" {
				continue
			}
			ops, ok := matrix[perm.Module]
			if !ok {
				ops = make(OperationSet, len(perm.Operations))
				matrix[perm.Module] = ops
			}
			for _, op := range perm.Operations {
				ops[op] = struct{}{}
			}
		}
	}
	return matrix
}
