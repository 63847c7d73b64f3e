package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/config"
)

const deniedHours = `{"status":"success","data":{"setting":{"key":"access_matrix_config","value":{"accessMatrix":[{"moduleId":"hours","moduleName":"PD Hours","roles":{"TEACHER":false}}],"formFlows":[]}}}}`

func TestWatcherReportsServerMatrix(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(deniedHours))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	w := newWatcher(config.WatcherConfig{
		ServerURL: srv.URL,
		Token:     "tok",
		Paths:     []string{"/teacher/hours", "/teacher/goals"},
		Role:      "Teacher",
	}, config.AccessConfig{SyncInterval: time.Hour}, srv.Client(), zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.syncer.Start(ctx)

	assert.Equal(t, "Bearer tok", auth.Load())
	require.True(t, w.store.Loaded())

	w.mu.Lock()
	hours, goals := w.last["/teacher/hours"], w.last["/teacher/goals"]
	w.mu.Unlock()
	assert.False(t, hours.Enabled)
	assert.True(t, goals.Enabled)
	assert.NotZero(t, logs.FilterMessage("access matrix updated").Len())

	// an unchanged verdict is not logged again
	before := logs.FilterMessage("access decision").Len()
	w.report()
	assert.Equal(t, before, logs.FilterMessage("access decision").Len())
}

func TestWatcherResyncsAfterReconnect(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(deniedHours))
	}))
	defer srv.Close()

	w := newWatcher(config.WatcherConfig{ServerURL: srv.URL, Token: "tok", Role: "TEACHER"},
		config.AccessConfig{SyncInterval: time.Hour}, srv.Client(), zap.NewNop())

	w.streamReady(context.Background(), "ws://example/events")
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches))
	assert.True(t, w.evaluator.Check("/teacher/hours", "TEACHER").Enabled)

	w.streamReady(context.Background(), "ws://example/events")
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
	assert.False(t, w.evaluator.Check("/teacher/hours", "TEACHER").Enabled)
}

func TestWatcherEventsURL(t *testing.T) {
	w := &watcher{cfg: config.WatcherConfig{ServerURL: "https://pdi.example.com/api/v1"}}
	assert.Equal(t, "wss://pdi.example.com/api/v1/events", w.eventsURL())

	w.cfg.EventsURL = "ws://localhost:9000/events"
	assert.Equal(t, "ws://localhost:9000/events", w.eventsURL())

	w.cfg = config.WatcherConfig{ServerURL: "pdi.local"}
	assert.Empty(t, w.eventsURL())
}
