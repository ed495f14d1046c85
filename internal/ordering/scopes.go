package ordering

// Persisted rank-map scopes. The group key narrows a scope to one sibling
// set: subcategories group by main category, services by "category/sub".
const (
	ScopeCategory    = "category"
	ScopeSubcategory = "subcategory"
	ScopeService     = "service"
	ScopePackage     = "package"
	ScopeChecklist   = "checklist"

	// GroupRoot is the group key for scopes with a single sibling set.
	GroupRoot = "root"
)

// KnownScope reports whether the scope string names a persisted scope.
func KnownScope(scope string) bool {
	switch scope {
	case ScopeCategory, ScopeSubcategory, ScopeService, ScopePackage, ScopeChecklist:
		return true
	}
	return false
}
