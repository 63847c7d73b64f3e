package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	loaded := false
	h := NewMetricsHandler(service.NewMetricsService(), func() bool { return loaded })

	c, rec := newContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	loaded = true
	c, rec = newContext(http.MethodGet, "/ready", "", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsHandlerSummaryAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordAccessDecision("redirect_landing", "hours")
	h := NewMetricsHandler(metrics, nil)

	c, rec := newContext(http.MethodGet, "/metrics/summary", "", nil)
	h.Summary(c)
	var snapshot service.MetricsSnapshot
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &snapshot))
	assert.Equal(t, uint64(1), snapshot.AccessDenials)

	c, rec = newContext(http.MethodGet, "/metrics", "", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_guard_decisions_total")
}
