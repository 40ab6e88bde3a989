package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/dasync/internal/infra/storage/memory"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store := memory.NewMemoryStorage()
	return NewManager(memory.NewCheckpointRepo(store))
}

func TestLoadSeedsOnFirstRun(t *testing.T) {
	m := newTestManager(t)

	index, err := m.Load(context.Background(), 100)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if index != 100 {
		t.Errorf("seeded index = %d, want 100", index)
	}
	if m.Current() != 100 {
		t.Errorf("Current() = %d, want 100", m.Current())
	}
}

func TestLoadPrefersPersistedValue(t *testing.T) {
	store := memory.NewMemoryStorage()
	repo := memory.NewCheckpointRepo(store)
	if err := repo.SetLastBatchIndex(context.Background(), 250); err != nil {
		t.Fatal(err)
	}

	m := NewManager(repo)
	index, err := m.Load(context.Background(), 100)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if index != 250 {
		t.Errorf("loaded index = %d, want persisted 250", index)
	}
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	if _, err := m.Load(ctx, 10); err != nil {
		t.Fatal(err)
	}

	if err := m.Advance(ctx, 15); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if m.Current() != 15 {
		t.Errorf("Current() = %d, want 15", m.Current())
	}

	// Equal value is a no-op, not an error
	if err := m.Advance(ctx, 15); err != nil {
		t.Errorf("Advance to current value should be a no-op, got %v", err)
	}

	// Moving backwards is rejected
	err := m.Advance(ctx, 14)
	if !errors.Is(err, ErrRegression) {
		t.Errorf("Advance backwards = %v, want ErrRegression", err)
	}
	if m.Current() != 15 {
		t.Errorf("Current() = %d after rejected advance, want 15", m.Current())
	}
}

func TestAdvanceBeforeLoad(t *testing.T) {
	m := newTestManager(t)

	if err := m.Advance(context.Background(), 5); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Advance before Load = %v, want ErrNotLoaded", err)
	}
}

func TestAdvancePersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	repo := memory.NewCheckpointRepo(store)

	m := NewManager(repo)
	if _, err := m.Load(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Advance(ctx, 7); err != nil {
		t.Fatal(err)
	}

	// A fresh manager over the same repo sees the advanced value
	m2 := NewManager(repo)
	index, err := m2.Load(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if index != 7 {
		t.Errorf("reloaded index = %d, want 7", index)
	}
}
