package access

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

// Trigger names what started a sync.
type Trigger string

const (
	TriggerMount      Trigger = "mount"
	TriggerPush       Trigger = "push"
	TriggerVisibility Trigger = "visibility"
	TriggerInterval   Trigger = "interval"
)

// SyncOutcome labels the result of a sync attempt.
type SyncOutcome string

const (
	SyncApplied    SyncOutcome = "applied"
	SyncStale      SyncOutcome = "stale"
	SyncSuperseded SyncOutcome = "superseded"
	SyncExpected   SyncOutcome = "expected_error"
	SyncFailed     SyncOutcome = "failed"
)

var (
	// ErrUnauthorized means the source rejected the session.
	ErrUnauthorized = errors.New("access config: unauthorized")
	// ErrNotFound means the source has no access config.
	ErrNotFound = errors.New("access config: not found")
)

// Source fetches the current access config.
type Source interface {
	Fetch(ctx context.Context) (Config, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Config, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) (Config, error) {
	return f(ctx)
}

// Syncer keeps a Store fresh. Every trigger runs the same fetch-and-apply
// routine; a newer trigger cancels the fetch it supersedes and the store
// rejects results older than the last applied generation.
type Syncer struct {
	store    *Store
	source   Source
	logger   *zap.Logger
	interval time.Duration
	hasToken func() bool
	observe  func(Trigger, SyncOutcome)

	generation atomic.Uint64

	mu          sync.Mutex
	inflight    context.CancelFunc
	inflightGen uint64
}

// SyncerOption customises a Syncer.
type SyncerOption func(*Syncer)

// WithSyncInterval sets the polling period.
func WithSyncInterval(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTokenCheck gates syncing on the presence of a session token.
func WithTokenCheck(fn func() bool) SyncerOption {
	return func(s *Syncer) {
		if fn != nil {
			s.hasToken = fn
		}
	}
}

// WithSyncLogger sets the logger.
func WithSyncLogger(l *zap.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSyncObserver receives every sync outcome, typically for metrics.
func WithSyncObserver(fn func(Trigger, SyncOutcome)) SyncerOption {
	return func(s *Syncer) {
		s.observe = fn
	}
}

// NewSyncer constructs a syncer writing into store.
func NewSyncer(store *Store, source Source, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:    store,
		source:   source,
		logger:   zap.NewNop(),
		interval: 30 * time.Second,
		hasToken: func() bool { return true },
		observe:  func(Trigger, SyncOutcome) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the mount sync, marks the store loaded and begins polling
// until ctx is cancelled.
func (s *Syncer) Start(ctx context.Context) {
	if s.hasToken() {
		_ = s.Sync(ctx, TriggerMount)
	}
	s.store.MarkLoaded()
	go s.poll(ctx)
}

func (s *Syncer) poll(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.hasToken() {
				_ = s.Sync(ctx, TriggerInterval)
			}
		}
	}
}

// HandleEvent syncs when evt announces a change of the access config key.
// It reports whether a sync was attempted.
func (s *Syncer) HandleEvent(ctx context.Context, evt realtime.Event) bool {
	key, ok := evt.SettingsKey()
	if !ok || key != ConfigKey {
		return false
	}
	_ = s.Sync(ctx, TriggerPush)
	return true
}

// Consume feeds events into HandleEvent until ctx ends or events closes.
func (s *Syncer) Consume(ctx context.Context, events <-chan realtime.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, evt)
		}
	}
}

// VisibilityChanged syncs when the consumer becomes visible again.
func (s *Syncer) VisibilityChanged(ctx context.Context, visible bool) {
	if visible && s.hasToken() {
		_ = s.Sync(ctx, TriggerVisibility)
	}
}

// Sync fetches and applies the config once. Without a session token it is
// a no-op. Failures leave the current snapshot in place.
func (s *Syncer) Sync(ctx context.Context, trigger Trigger) error {
	if !s.hasToken() {
		return nil
	}

	gen := s.generation.Add(1)
	fetchCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.inflight != nil {
		s.inflight()
	}
	s.inflight, s.inflightGen = cancel, gen
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.inflightGen == gen {
			s.inflight = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	fields := []zap.Field{zap.String("trigger", string(trigger)), zap.Uint64("generation", gen)}

	cfg, err := s.source.Fetch(fetchCtx)
	if err != nil {
		switch {
		case fetchCtx.Err() != nil && ctx.Err() == nil:
			s.logger.Debug("access sync superseded", fields...)
			s.observe(trigger, SyncSuperseded)
		case isExpectedSyncError(err):
			s.logger.Debug("access sync skipped", append(fields, zap.Error(err))...)
			s.observe(trigger, SyncExpected)
		default:
			s.logger.Warn("access sync failed", append(fields, zap.Error(err))...)
			s.observe(trigger, SyncFailed)
		}
		return err
	}

	snapshot, err := s.store.Apply(gen, cfg)
	if err != nil {
		s.logger.Debug("access sync result discarded", append(fields, zap.Error(err))...)
		s.observe(trigger, SyncStale)
		return err
	}
	s.logger.Debug("access matrix applied", append(fields, zap.Uint64("version", snapshot.Version))...)
	s.observe(trigger, SyncApplied)
	return nil
}

func isExpectedSyncError(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
		return true
	}
	status := appErrors.StatusOf(err)
	return status == http.StatusUnauthorized || status == http.StatusNotFound
}
