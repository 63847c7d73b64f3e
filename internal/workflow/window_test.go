package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsWindowOpen(t *testing.T) {
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)

	assert.True(t, IsWindowOpen(Window{Status: WindowOpen}, now))
	assert.False(t, IsWindowOpen(Window{Status: WindowClosed}, now))
	assert.False(t, IsWindowOpen(Window{Status: WindowClosed, StartDate: &start, EndDate: &end}, now))
	assert.True(t, IsWindowOpen(Window{Status: WindowOpen, StartDate: &start, EndDate: &end}, now))
	assert.False(t, IsWindowOpen(Window{Status: WindowOpen, StartDate: &future}, now))
	assert.False(t, IsWindowOpen(Window{Status: WindowOpen, EndDate: &past}, now))
	assert.True(t, IsWindowOpen(Window{Status: WindowOpen, StartDate: &now, EndDate: &now}, now))
}

func TestMissingWindowIsOpen(t *testing.T) {
	ws := NewWindows([]Window{{Phase: PhaseGoalSetting, Status: WindowClosed}})
	assert.True(t, ws.Open(PhaseSelfReflection, now))
	assert.False(t, ws.Open(PhaseGoalSetting, now))

	var none Windows
	assert.True(t, none.Open(PhaseGoalCompletion, now))
}
