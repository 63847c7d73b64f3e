package access

// Reason explains an access decision.
type Reason string

const (
	ReasonUnknownRole Reason = "unknown_role"
	ReasonSuperAdmin  Reason = "superadmin"
	ReasonUnregulated Reason = "unregulated_path"
	ReasonUngoverned  Reason = "ungoverned_module"
	ReasonMatrixAllow Reason = "matrix_allow"
	ReasonMatrixDeny  Reason = "matrix_deny"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Path     string `json:"path"`
	ModuleID string `json:"moduleId,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Enabled  bool   `json:"enabled"`
	Reason   Reason `json:"reason"`
}

// Evaluator answers whether a role may use the module behind a path.
type Evaluator struct {
	store    *Store
	resolver *Resolver
}

// NewEvaluator wires an evaluator. A nil resolver selects the default map.
func NewEvaluator(store *Store, resolver *Resolver) *Evaluator {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Evaluator{store: store, resolver: resolver}
}

// IsModuleEnabled reports whether rawRole may open path.
func (e *Evaluator) IsModuleEnabled(path, rawRole string) bool {
	return e.Check(path, rawRole).Enabled
}

// Check evaluates path for rawRole against the current snapshot.
func (e *Evaluator) Check(path, rawRole string) Decision {
	d := Decision{Path: path, Role: NormalizeRole(rawRole)}
	if d.Role == "" {
		d.Reason = ReasonUnknownRole
		return d
	}
	if d.Role == RoleSuperAdmin {
		d.Enabled, d.Reason = true, ReasonSuperAdmin
		if module, ok := e.resolver.Resolve(path); ok {
			d.ModuleID = module
		}
		return d
	}

	module, ok := e.resolver.Resolve(path)
	if !ok {
		d.Enabled, d.Reason = true, ReasonUnregulated
		return d
	}
	d.ModuleID = module

	entry, ok := e.store.Snapshot().Module(module)
	if !ok {
		d.Enabled, d.Reason = true, ReasonUngoverned
		return d
	}
	if entry.Roles[d.Role] {
		d.Enabled, d.Reason = true, ReasonMatrixAllow
		return d
	}
	d.Reason = ReasonMatrixDeny
	return d
}
