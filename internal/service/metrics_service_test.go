package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/goals", http.StatusOK, 20*time.Millisecond)
	metrics.RecordAccessDecision("redirect_landing", "hours")
	metrics.RecordAccessDecision("allow", "goals")
	metrics.RecordAccessSync("push", "applied")
	metrics.RecordGoalTransition("SUBMIT_GOAL_SETTING", "WINDOW_CLOSED")
	metrics.RecordGoalTransition("SUBMIT_GOAL_SETTING", "ok")
	metrics.TrackSubscribers(func() int { return 3 })

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `access_guard_decisions_total{module="hours",outcome="redirect_landing"} 1`)
	assert.Contains(t, body, `access_matrix_syncs_total{outcome="applied",trigger="push"} 1`)
	assert.Contains(t, body, `goal_transitions_total{action="SUBMIT_GOAL_SETTING",result="WINDOW_CLOSED"} 1`)
	assert.Contains(t, body, "realtime_subscribers 3")

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.AccessDenials)
	assert.Equal(t, uint64(1), snapshot.GoalTransitions)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordAccessDecision("allow", "")
	metrics.RecordGoalTransition("x", "ok")
	assert.Equal(t, MetricsSnapshot{}, metrics.Snapshot())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
