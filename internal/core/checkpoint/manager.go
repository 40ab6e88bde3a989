// Package checkpoint tracks the last fully-handled rollup batch index.
//
// The checkpoint is the sole durable recovery point: restarting the service
// re-plans a range starting exactly at the persisted value, at worst redoing
// idempotent writes for data already known. Writes are strictly monotonic
// non-decreasing across the process lifetime; the manager rejects any
// attempt to move the value backwards.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vietddude/dasync/internal/indexing/metrics"
	"github.com/vietddude/dasync/internal/infra/storage"
)

var (
	// ErrRegression is returned when an advance would move the checkpoint
	// backwards.
	ErrRegression = errors.New("checkpoint regression")

	// ErrNotLoaded is returned when the manager is used before Load.
	ErrNotLoaded = errors.New("checkpoint not loaded")
)

// Manager caches the durable checkpoint and enforces monotonic advancement.
// A single sync loop owns it; the mutex only guards against readers on other
// goroutines (health reporting).
type Manager struct {
	repo storage.CheckpointRepository

	mu      sync.RWMutex
	current uint64
	loaded  bool
}

// NewManager creates a new checkpoint manager with the given repository.
func NewManager(repo storage.CheckpointRepository) *Manager {
	return &Manager{repo: repo}
}

// Load reads the persisted checkpoint, seeding it with initial on first run.
func (m *Manager) Load(ctx context.Context, initial uint64) (uint64, error) {
	index, ok, err := m.repo.GetLastBatchIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !ok {
		index = initial
		if err := m.repo.SetLastBatchIndex(ctx, index); err != nil {
			return 0, fmt.Errorf("failed to seed checkpoint: %w", err)
		}
	}

	m.mu.Lock()
	m.current = index
	m.loaded = true
	m.mu.Unlock()

	metrics.HighestSyncedBatchIndex.Set(float64(index))
	return index, nil
}

// Current returns the cached checkpoint value.
func (m *Manager) Current() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Advance durably moves the checkpoint to index after that batch index was
// fully handled. Advancing to the current value is a no-op (re-processing
// the boundary index after a restart); moving backwards is an error.
func (m *Manager) Advance(ctx context.Context, index uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return ErrNotLoaded
	}
	if index < m.current {
		return fmt.Errorf("%w: at %d, got %d", ErrRegression, m.current, index)
	}
	if index == m.current {
		return nil
	}

	if err := m.repo.SetLastBatchIndex(ctx, index); err != nil {
		return fmt.Errorf("failed to persist checkpoint: %w", err)
	}
	m.current = index

	metrics.HighestSyncedBatchIndex.Set(float64(index))
	return nil
}
