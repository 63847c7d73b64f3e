package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func loadedGuard(t *testing.T, opts ...GuardOption) (*Guard, *Store) {
	t.Helper()
	store := NewStore()
	store.MarkLoaded()
	return NewGuard(store, NewEvaluator(store, nil), opts...), store
}

func TestGuardLoading(t *testing.T) {
	store := NewStore()
	guard := NewGuard(store, NewEvaluator(store, nil))

	assert.Equal(t, OutcomeLoading, guard.Decide(GuardInput{Path: "/teacher", Authenticated: true, RawRole: "TEACHER"}).Outcome)

	store.MarkLoaded()
	assert.Equal(t, OutcomeLoading, guard.Decide(GuardInput{Path: "/teacher", AuthLoading: true}).Outcome)
	assert.Equal(t, OutcomeAllow, guard.Decide(GuardInput{Path: "/teacher", Authenticated: true, RawRole: "TEACHER"}).Outcome)
}

func TestGuardRedirectsToLoginPreservingLocation(t *testing.T) {
	guard, _ := loadedGuard(t, WithLoginPath("/signin"))
	d := guard.Decide(GuardInput{Path: "/teacher/hours?week=2"})
	assert.Equal(t, OutcomeRedirectLogin, d.Outcome)
	assert.Equal(t, "/signin?from=%2Fteacher%2Fhours%3Fweek%3D2", d.Location)
}

func TestGuardStaticAllowList(t *testing.T) {
	guard, _ := loadedGuard(t)
	d := guard.Decide(GuardInput{Path: "/admin/users", Authenticated: true, RawRole: "LEADER", AllowedRoles: []string{"ADMIN", "SUPERADMIN"}})
	assert.Equal(t, OutcomeRedirectLanding, d.Outcome)
	assert.Equal(t, "/leader", d.Location)
	assert.Nil(t, d.Check)
}

func TestGuardMatrixCanOnlyNarrow(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	var denied []GuardDecision
	guard, store := loadedGuard(t,
		WithAuditLogger(zap.New(core)),
		WithDenyHook(func(_ GuardInput, d GuardDecision) { denied = append(denied, d) }),
	)
	_, err := store.Apply(1, Config{AccessMatrix: []ModulePermission{{ModuleID: "settings", Roles: map[Role]bool{RoleAdmin: false}}}})
	require.NoError(t, err)

	in := GuardInput{Path: "/admin/settings", Authenticated: true, RawRole: "ADMIN", AllowedRoles: []string{"ADMIN", "SUPERADMIN"}}
	d := guard.Decide(in)
	assert.Equal(t, OutcomeRedirectLanding, d.Outcome)
	assert.Equal(t, "/admin", d.Location)
	require.NotNil(t, d.Check)
	assert.Equal(t, ReasonMatrixDeny, d.Check.Reason)

	require.Equal(t, 1, logs.FilterMessage("module access denied").Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	assert.Len(t, denied, 1)

	in.RawRole = "SUPERADMIN"
	assert.Equal(t, OutcomeAllow, guard.Decide(in).Outcome)

	// The matrix allowing a role never overrides the allow-list.
	in.RawRole = "TEACHER"
	assert.Equal(t, OutcomeRedirectLanding, guard.Decide(in).Outcome)
}
