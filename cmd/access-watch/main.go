// Command access-watch mirrors the API's access matrix the way a browser
// session does: it loads the config on start, polls it, re-syncs on
// SETTINGS_UPDATED pushes, re-syncs when the event stream comes back after
// an outage and logs every change in the verdict for the
// watched paths.
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/internal/access"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/config"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/logger"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := newWatcher(cfg.Watcher, cfg.Access, &http.Client{Timeout: 10 * time.Second}, logr)
	w.Run(ctx)
}

type watcher struct {
	cfg       config.WatcherConfig
	store     *access.Store
	evaluator *access.Evaluator
	syncer    *access.Syncer
	logger    *zap.Logger

	mu   sync.Mutex
	last map[string]access.Decision

	streamSeen bool
}

func newWatcher(cfg config.WatcherConfig, accessCfg config.AccessConfig, client *http.Client, logr *zap.Logger) *watcher {
	token := func() string { return cfg.Token }
	store := access.NewStore(access.WithAcceptUnknownModules(accessCfg.AcceptUnknownModules))
	w := &watcher{
		cfg:       cfg,
		store:     store,
		evaluator: access.NewEvaluator(store, nil),
		logger:    logr,
		last:      make(map[string]access.Decision, len(cfg.Paths)),
	}
	w.syncer = access.NewSyncer(store, access.NewHTTPSource(cfg.ServerURL, token, client),
		access.WithSyncInterval(accessCfg.SyncInterval),
		access.WithTokenCheck(func() bool { return token() != "" }),
		access.WithSyncLogger(logr.Named("access.sync")),
		access.WithSyncObserver(func(trigger access.Trigger, outcome access.SyncOutcome) {
			logr.Debug("sync finished", zap.String("trigger", string(trigger)), zap.String("outcome", string(outcome)))
		}),
	)
	store.OnChange(func(s *access.Snapshot) {
		logr.Info("access matrix updated", zap.Uint64("version", s.Version), zap.Int("modules", len(s.Matrix)))
		w.report()
	})
	return w
}

// Run blocks until ctx is cancelled.
func (w *watcher) Run(ctx context.Context) {
	if w.cfg.Token == "" {
		w.logger.Warn("ACCESS_TOKEN is empty, showing built-in defaults only")
	}
	w.syncer.Start(ctx)
	w.report()

	eventsURL := w.eventsURL()
	if eventsURL == "" || w.cfg.Token == "" {
		<-ctx.Done()
		return
	}
	realtime.Follow(ctx, eventsURL, w.cfg.Token, w.logger,
		func() { w.streamReady(ctx, eventsURL) },
		func(evt realtime.Event) { w.syncer.HandleEvent(ctx, evt) },
	)
}

// streamReady runs on every event stream handshake. A reconnect is the
// watcher becoming visible again: pushes sent while the stream was down are
// lost, so the matrix is fetched once more.
func (w *watcher) streamReady(ctx context.Context, url string) {
	w.logger.Debug("event stream ready", zap.String("url", url))
	if !w.streamSeen {
		w.streamSeen = true
		return
	}
	w.syncer.VisibilityChanged(ctx, true)
}

// report logs the verdict of every watched path whose decision changed.
func (w *watcher) report() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, path := range w.cfg.Paths {
		d := w.evaluator.Check(path, w.cfg.Role)
		if prev, ok := w.last[path]; ok && prev == d {
			continue
		}
		w.last[path] = d
		w.logger.Info("access decision",
			zap.String("path", path),
			zap.String("role", w.cfg.Role),
			zap.String("module", d.ModuleID),
			zap.Bool("enabled", d.Enabled),
			zap.String("reason", string(d.Reason)),
			zap.String("landing", access.LandingPath(w.cfg.Role)),
		)
	}
}

func (w *watcher) eventsURL() string {
	if w.cfg.EventsURL != "" {
		return w.cfg.EventsURL
	}
	base := w.cfg.ServerURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return ""
	}
	return base + "/events"
}
