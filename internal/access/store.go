package access

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStaleGeneration is returned by Apply for a result older than the one
// already committed.
var ErrStaleGeneration = errors.New("stale access matrix generation")

// Snapshot is an immutable view of the matrix. Callers must not mutate it.
type Snapshot struct {
	Version    uint64             `json:"version"`
	Generation uint64             `json:"-"`
	Matrix     []ModulePermission `json:"accessMatrix"`
	FormFlows  []FormFlowConfig   `json:"formFlows"`
	UpdatedAt  time.Time          `json:"updatedAt"`

	index map[string]int
}

// Module looks up a module by id.
func (s *Snapshot) Module(id string) (ModulePermission, bool) {
	i, ok := s.index[id]
	if !ok {
		return ModulePermission{}, false
	}
	return s.Matrix[i], true
}

func newSnapshot(version, generation uint64, matrix []ModulePermission, flows []FormFlowConfig) *Snapshot {
	index := make(map[string]int, len(matrix))
	for i, entry := range matrix {
		index[entry.ModuleID] = i
	}
	if flows == nil {
		flows = []FormFlowConfig{}
	}
	return &Snapshot{
		Version:    version,
		Generation: generation,
		Matrix:     matrix,
		FormFlows:  flows,
		UpdatedAt:  time.Now().UTC(),
		index:      index,
	}
}

// Store holds the live access matrix. Reads are lock-free; Apply is the
// single write path and commits whole snapshots.
type Store struct {
	defaults      []ModulePermission
	acceptUnknown bool

	current atomic.Pointer[Snapshot]
	loaded  atomic.Bool

	mu          sync.Mutex
	lastGen     uint64
	subscribers []func(*Snapshot)
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithDefaults replaces the built-in default matrix.
func WithDefaults(defaults []ModulePermission) StoreOption {
	return func(s *Store) {
		s.defaults = defaults
	}
}

// WithAcceptUnknownModules keeps server-only modules when merging.
func WithAcceptUnknownModules(accept bool) StoreOption {
	return func(s *Store) {
		s.acceptUnknown = accept
	}
}

// NewStore initialises the store from the default matrix.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{defaults: DefaultMatrix()}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(newSnapshot(1, 0, Merge(s.defaults, nil, false), nil))
	return s
}

// Snapshot returns the latest committed matrix.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Defaults returns a copy of the default matrix.
func (s *Store) Defaults() []ModulePermission {
	return Merge(s.defaults, nil, false)
}

// Apply merges cfg over the defaults and commits it as generation. Results
// whose generation is not newer than the last applied one are rejected, so
// a slow response can never replace a fresher matrix.
func (s *Store) Apply(generation uint64, cfg Config) (*Snapshot, error) {
	merged := Merge(s.defaults, cfg.AccessMatrix, s.acceptUnknown)
	flows := append([]FormFlowConfig(nil), cfg.FormFlows...)

	s.mu.Lock()
	if generation <= s.lastGen {
		s.mu.Unlock()
		return nil, ErrStaleGeneration
	}
	s.lastGen = generation
	next := newSnapshot(s.current.Load().Version+1, generation, merged, flows)
	s.current.Store(next)
	subscribers := append(([]func(*Snapshot))(nil), s.subscribers...)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(next)
	}
	return next, nil
}

// OnChange registers fn to run after every committed snapshot.
func (s *Store) OnChange(fn func(*Snapshot)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// MarkLoaded records that the initial sync attempt has finished.
func (s *Store) MarkLoaded() {
	s.loaded.Store(true)
}

// Loaded reports whether the initial sync attempt has finished.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}
