// Package access implements role-based module gating: role normalization,
// path-to-module resolution, the versioned access matrix and the guard that
// consumes it.
package access

import "strings"

// Role is a canonical application role. The zero value means "no role".
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleLeader     Role = "LEADER"
	RoleManagement Role = "MANAGEMENT"
	RoleTeacher    Role = "TEACHER"
)

// Roles lists every canonical role in matrix column order.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleLeader, RoleManagement, RoleTeacher}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRole maps a free-form role string onto the canonical set. Checks
// run in a fixed priority order; unrecognized input yields the empty role.
func NormalizeRole(raw string) Role {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(strings.ToUpper(raw), "_", " ")), " ")
	switch {
	case cleaned == "":
		return ""
	case strings.Contains(cleaned, "SCHOOL LEADER") || cleaned == "LEADER":
		return RoleLeader
	case strings.Contains(cleaned, "MANAGEMENT"):
		return RoleManagement
	case strings.Contains(cleaned, "TEACHER"):
		return RoleTeacher
	case strings.Contains(cleaned, "ADMIN") && cleaned != "SUPERADMIN":
		return RoleAdmin
	case cleaned == "SUPERADMIN":
		return RoleSuperAdmin
	default:
		return ""
	}
}

// LandingPath returns the default dashboard for a raw role.
func LandingPath(raw string) string {
	switch NormalizeRole(raw) {
	case RoleAdmin, RoleSuperAdmin:
		return "/admin"
	case RoleLeader:
		return "/leader"
	case RoleManagement:
		return "/management"
	default:
		return "/teacher"
	}
}
