package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ctrl "sigs.k8s.io/controller-runtime"
)

// Observer is notified after every successful load.
type Observer func(s *Snapshot)

// Store caches one Snapshot for the process lifetime. Concurrent readers share
// the snapshot; loads are serialized.
type Store struct {
	loader   Loader
	observer Observer

	mu       sync.RWMutex
	snapshot *Snapshot

	loadMu sync.Mutex
}

var _ ReadReloader = &Store{}

// NewStore returns an empty Store backed by loader. observer may be nil.
func NewStore(loader Loader, observer Observer) *Store {
	return &Store{loader: loader, observer: observer}
}

// Get returns the cached snapshot, loading it if none is held.
func (s *Store) Get(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Another caller may have loaded while we waited.
	s.mu.RLock()
	snap = s.snapshot
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}
	return s.loadLocked(ctx)
}

// Loaded implements Reader.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot != nil
}

// Invalidate implements Reloader.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
	ctrl.Log.WithName("assets").Info("Assets invalidated")
}

// Reload implements Reloader. On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (*Snapshot, error) {
	logger := ctrl.LoggerFrom(ctx).WithName("assets")

	snap, err := s.loader.Load(ctx)
	if err == nil {
		switch {
		case snap == nil:
			err = errors.New("loader returned no snapshot")
		case snap.Model == nil:
			err = errors.New("snapshot has no model")
		case snap.History.Len() == 0:
			err = errors.New("snapshot has no history")
		}
	}
	if err != nil {
		logger.Error(err, "Failed to load assets")
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	logger.Info("Assets loaded", "months", snap.History.Len(), "features", snap.Model.Features())
	if s.observer != nil {
		s.observer(snap)
	}
	return snap, nil
}
