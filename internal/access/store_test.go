package access

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreStartsFromDefaults(t *testing.T) {
	store := NewStore()
	snap := store.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, DefaultMatrix(), snap.Matrix)
	assert.Empty(t, snap.FormFlows)
	assert.False(t, store.Loaded())
}

func TestApplyRejectsStaleGeneration(t *testing.T) {
	store := NewStore()
	off := Config{AccessMatrix: []ModulePermission{{ModuleID: "hours", Roles: map[Role]bool{RoleTeacher: false}}}}
	on := Config{AccessMatrix: []ModulePermission{{ModuleID: "hours", Roles: map[Role]bool{RoleTeacher: true}}}}

	snap, err := store.Apply(2, off)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Version)

	_, err = store.Apply(1, on)
	assert.ErrorIs(t, err, ErrStaleGeneration)
	_, err = store.Apply(2, on)
	assert.ErrorIs(t, err, ErrStaleGeneration)

	entry, ok := store.Snapshot().Module("hours")
	require.True(t, ok)
	assert.False(t, entry.Roles[RoleTeacher])
}

func TestApplyKeepsFormFlowsAndNotifies(t *testing.T) {
	store := NewStore()
	var seen []uint64
	store.OnChange(func(s *Snapshot) { seen = append(seen, s.Version) })

	cfg := Config{FormFlows: []FormFlowConfig{{ID: "f1", FormName: "Observation"}}}
	_, err := store.Apply(1, cfg)
	require.NoError(t, err)

	assert.Equal(t, []uint64{2}, seen)
	assert.Equal(t, cfg.FormFlows, store.Snapshot().FormFlows)
}

func TestSnapshotsAreNeverPartial(t *testing.T) {
	store := NewStore()
	allOff := make([]ModulePermission, 0)
	for _, entry := range DefaultMatrix() {
		allOff = append(allOff, ModulePermission{ModuleID: entry.ModuleID, Roles: map[Role]bool{RoleTeacher: false}})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for gen := uint64(1); gen <= 200; gen++ {
			cfg := Config{}
			if gen%2 == 0 {
				cfg.AccessMatrix = allOff
			}
			_, _ = store.Apply(gen, cfg)
		}
	}()

	for i := 0; i < 200; i++ {
		snap := store.Snapshot()
		enabled := 0
		for _, entry := range snap.Matrix {
			if entry.Roles[RoleTeacher] {
				enabled++
			}
		}
		// A snapshot is either the defaults or fully switched off.
		assert.True(t, enabled == 0 || enabled == countTeacherDefaults(), "partial snapshot with %d enabled", enabled)
	}
	wg.Wait()
}

func countTeacherDefaults() int {
	n := 0
	for _, entry := range DefaultMatrix() {
		if entry.Roles[RoleTeacher] {
			n++
		}
	}
	return n
}
