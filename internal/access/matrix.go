package access

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ConfigKey is the settings key holding the access matrix payload.
const ConfigKey = "access_matrix_config"

// ModulePermission grants or denies one module per role.
type ModulePermission struct {
	ModuleID   string        `json:"moduleId"`
	ModuleName string        `json:"moduleName"`
	Roles      map[Role]bool `json:"roles"`
}

// FormFlowConfig is routing metadata for submitted forms. It never takes
// part in access decisions.
type FormFlowConfig struct {
	ID              string `json:"id"`
	FormName        string `json:"formName"`
	SenderRole      string `json:"senderRole"`
	TargetDashboard string `json:"targetDashboard"`
	TargetLocation  string `json:"targetLocation"`
}

// Config is the decoded access_matrix_config setting.
type Config struct {
	AccessMatrix []ModulePermission `json:"accessMatrix"`
	FormFlows    []FormFlowConfig   `json:"formFlows"`
}

// ErrInvalidConfig reports a malformed access matrix payload.
var ErrInvalidConfig = errors.New("invalid access matrix config")

func grant(superadmin, admin, leader, management, teacher bool) map[Role]bool {
	return map[Role]bool{
		RoleSuperAdmin: superadmin,
		RoleAdmin:      admin,
		RoleLeader:     leader,
		RoleManagement: management,
		RoleTeacher:    teacher,
	}
}

// DefaultMatrix returns a fresh copy of the built-in matrix.
func DefaultMatrix() []ModulePermission {
	return []ModulePermission{
		{ModuleID: "dashboard", ModuleName: "Dashboard", Roles: grant(true, true, true, true, true)},
		{ModuleID: "observations", ModuleName: "Observations", Roles: grant(true, true, true, true, true)},
		{ModuleID: "goals", ModuleName: "Goals", Roles: grant(true, true, true, true, true)},
		{ModuleID: "hours", ModuleName: "PD Hours", Roles: grant(true, true, true, true, true)},
		{ModuleID: "attendance", ModuleName: "Attendance", Roles: grant(true, true, true, true, true)},
		{ModuleID: "meetings", ModuleName: "Meetings & Minutes", Roles: grant(true, true, true, true, true)},
		{ModuleID: "announcements", ModuleName: "Announcements", Roles: grant(true, true, true, true, true)},
		{ModuleID: "surveys", ModuleName: "Surveys", Roles: grant(true, true, true, true, true)},
		{ModuleID: "calendar", ModuleName: "Calendar", Roles: grant(true, true, true, true, true)},
		{ModuleID: "courses", ModuleName: "Courses", Roles: grant(true, true, true, true, true)},
		{ModuleID: "documents", ModuleName: "Documents", Roles: grant(true, true, true, true, true)},
		{ModuleID: "reports", ModuleName: "Reports", Roles: grant(true, true, true, true, false)},
		{ModuleID: "insights", ModuleName: "Insights", Roles: grant(true, true, true, true, false)},
		{ModuleID: "forms", ModuleName: "Form Flows", Roles: grant(true, true, true, false, false)},
		{ModuleID: "users", ModuleName: "User Management", Roles: grant(true, true, false, false, false)},
		{ModuleID: "settings", ModuleName: "Settings", Roles: grant(true, true, false, false, false)},
	}
}

// Merge lays server entries over defaults. For every default module each
// role takes the server value when present and the default otherwise.
// Server-only modules are dropped unless acceptUnknown is set, in which case
// they are appended with absent roles denied. Inputs are not modified.
func Merge(defaults, server []ModulePermission, acceptUnknown bool) []ModulePermission {
	byID := make(map[string]ModulePermission, len(server))
	for _, entry := range server {
		if _, dup := byID[entry.ModuleID]; !dup {
			byID[entry.ModuleID] = entry
		}
	}

	known := make(map[string]struct{}, len(defaults))
	merged := make([]ModulePermission, 0, len(defaults))
	for _, def := range defaults {
		known[def.ModuleID] = struct{}{}
		entry := ModulePermission{ModuleID: def.ModuleID, ModuleName: def.ModuleName, Roles: make(map[Role]bool, len(Roles))}
		for _, role := range Roles {
			entry.Roles[role] = def.Roles[role]
		}
		if remote, ok := byID[def.ModuleID]; ok {
			for _, role := range Roles {
				if v, present := remote.Roles[role]; present {
					entry.Roles[role] = v
				}
			}
		}
		merged = append(merged, entry)
	}

	if !acceptUnknown {
		return merged
	}
	for _, remote := range server {
		if _, ok := known[remote.ModuleID]; ok || remote.ModuleID == "" {
			continue
		}
		known[remote.ModuleID] = struct{}{}
		entry := ModulePermission{ModuleID: remote.ModuleID, ModuleName: remote.ModuleName, Roles: make(map[Role]bool, len(Roles))}
		for _, role := range Roles {
			entry.Roles[role] = remote.Roles[role]
		}
		merged = append(merged, entry)
	}
	return merged
}

// ParseConfig decodes a setting value that is either the config object or a
// JSON string containing it.
func ParseConfig(raw []byte) (Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Config{}, fmt.Errorf("%w: empty value", ErrInvalidConfig)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		raw = []byte(inner)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate enforces the invariants required before a payload is persisted:
// non-empty unique module ids and canonical role keys only.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.AccessMatrix))
	for i, entry := range c.AccessMatrix {
		if entry.ModuleID == "" {
			return fmt.Errorf("%w: accessMatrix[%d] has no moduleId", ErrInvalidConfig, i)
		}
		if _, dup := seen[entry.ModuleID]; dup {
			return fmt.Errorf("%w: duplicate moduleId %q", ErrInvalidConfig, entry.ModuleID)
		}
		seen[entry.ModuleID] = struct{}{}
		for role := range entry.Roles {
			if !role.Valid() {
				return fmt.Errorf("%w: module %q has unknown role %q", ErrInvalidConfig, entry.ModuleID, role)
			}
		}
	}
	flows := make(map[string]struct{}, len(c.FormFlows))
	for i, flow := range c.FormFlows {
		if flow.ID == "" || flow.FormName == "" {
			return fmt.Errorf("%w: formFlows[%d] requires id and formName", ErrInvalidConfig, i)
		}
		if _, dup := flows[flow.ID]; dup {
			return fmt.Errorf("%w: duplicate form flow %q", ErrInvalidConfig, flow.ID)
		}
		flows[flow.ID] = struct{}{}
	}
	return nil
}
