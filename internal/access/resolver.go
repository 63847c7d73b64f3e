package access

import "strings"

// PathModuleMap maps a path segment to the module that governs it.
type PathModuleMap map[string]string

// DefaultPathModuleMap covers every module of the default matrix plus the
// route aliases used by the dashboards.
func DefaultPathModuleMap() PathModuleMap {
	return PathModuleMap{
		"dashboard":     "dashboard",
		"observations":  "observations",
		"observation":   "observations",
		"observe":       "observations",
		"goals":         "goals",
		"goal":          "goals",
		"goal-windows":  "goals",
		"hours":         "hours",
		"pd-hours":      "hours",
		"attendance":    "attendance",
		"meetings":      "meetings",
		"minutes":       "meetings",
		"announcements": "announcements",
		"surveys":       "surveys",
		"survey":        "surveys",
		"calendar":      "calendar",
		"courses":       "courses",
		"learning":      "courses",
		"documents":     "documents",
		"reports":       "reports",
		"users":         "users",
		"settings":      "settings",
		"insights":      "insights",
		"analytics":     "insights",
		"forms":         "forms",
	}
}

// Resolver turns navigation paths into module ids.
type Resolver struct {
	modules PathModuleMap
}

// NewResolver builds a resolver over m. A nil map selects the default map.
func NewResolver(m PathModuleMap) *Resolver {
	if m == nil {
		m = DefaultPathModuleMap()
	}
	copied := make(PathModuleMap, len(m))
	for segment, module := range m {
		copied[segment] = module
	}
	return &Resolver{modules: copied}
}

// Resolve scans the path's segments deepest first and returns the module of
// the first mapped segment. ok is false when the path is unregulated.
func (r *Resolver) Resolve(path string) (moduleID string, ok bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		if module, found := r.modules[segments[i]]; found {
			return module, true
		}
	}
	return "", false
}
