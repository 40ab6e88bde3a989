package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/dasync/internal/core/checkpoint"
	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/core/errs"
	"github.com/vietddude/dasync/internal/infra/storage/memory"
)

type fakePlanner struct {
	mu     sync.Mutex
	ranges []domain.BatchRange
	calls  []uint64
}

func (f *fakePlanner) Next(ctx context.Context, cp uint64) (domain.BatchRange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cp)
	if len(f.ranges) == 0 {
		return domain.BatchRange{Start: cp, End: cp}, nil
	}
	r := f.ranges[0]
	f.ranges = f.ranges[1:]
	return r, nil
}

// fakeProcessor returns the queued errors in order, advancing the checkpoint
// on success.
type fakeProcessor struct {
	mu         sync.Mutex
	errors     []error
	checkpoint *checkpoint.Manager
	processed  []domain.BatchRange
	done       chan struct{}
}

func (f *fakeProcessor) Process(ctx context.Context, r domain.BatchRange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, r)

	var err error
	if len(f.errors) > 0 {
		err = f.errors[0]
		f.errors = f.errors[1:]
	}
	if err == nil && f.checkpoint != nil {
		if aerr := f.checkpoint.Advance(ctx, r.End-1); aerr != nil {
			return aerr
		}
	}
	if err == nil && len(f.errors) == 0 && f.done != nil {
		select {
		case <-f.done:
		default:
			close(f.done)
		}
	}
	return err
}

type fakeJournal struct {
	mu      sync.Mutex
	records []string
}

func (f *fakeJournal) Record(ctx context.Context, start, end uint64, kind, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, kind)
	return nil
}

func newCheckpoint(t *testing.T, initial uint64) *checkpoint.Manager {
	t.Helper()
	m := checkpoint.NewManager(memory.NewCheckpointRepo(memory.NewMemoryStorage()))
	if _, err := m.Load(context.Background(), initial); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSyncerFatalOnProcessingError(t *testing.T) {
	cp := newCheckpoint(t, 10)
	procErr := errors.New("db write failed")
	s := New(Config{
		Planner:      &fakePlanner{ranges: []domain.BatchRange{{Start: 10, End: 12}}},
		Processor:    &fakeProcessor{errors: []error{procErr}},
		Checkpoint:   cp,
		PollInterval: time.Millisecond,
	})

	err := s.Start(context.Background())
	if !errors.Is(err, procErr) {
		t.Fatalf("Start error = %v, want wrapped %v", err, procErr)
	}
	if s.Running() {
		t.Error("syncer should not report running after exit")
	}
}

func TestSyncerRetriesWindowOnMissingElement(t *testing.T) {
	cp := newCheckpoint(t, 10)
	planner := &fakePlanner{ranges: []domain.BatchRange{
		{Start: 10, End: 12},
		{Start: 10, End: 12},
	}}
	proc := &fakeProcessor{
		errors:     []error{errs.MissingElement("rollup store 11")},
		checkpoint: cp,
		done:       make(chan struct{}),
	}
	s := New(Config{
		Planner:      planner,
		Processor:    proc,
		Checkpoint:   cp,
		PollInterval: time.Millisecond,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for retry")
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v", err)
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.processed) < 2 {
		t.Fatalf("processed %d windows, want at least 2", len(proc.processed))
	}
	// Both passes saw the same window: the checkpoint never moved past the
	// missing element.
	if proc.processed[0] != proc.processed[1] {
		t.Errorf("retry window %+v differs from original %+v",
			proc.processed[1], proc.processed[0])
	}
	if cp.Current() != 11 {
		t.Errorf("checkpoint = %d, want 11", cp.Current())
	}
}

func TestSyncerCatchAllSwallowsAndJournals(t *testing.T) {
	cp := newCheckpoint(t, 10)
	journal := &fakeJournal{}
	proc := &fakeProcessor{
		errors:     []error{errs.Transport("getDataStoreById", errors.New("timeout"))},
		checkpoint: cp,
		done:       make(chan struct{}),
	}
	s := New(Config{
		Planner: &fakePlanner{ranges: []domain.BatchRange{
			{Start: 10, End: 12},
			{Start: 10, End: 12},
		}},
		Processor:      proc,
		Checkpoint:     cp,
		PollInterval:   time.Millisecond,
		CatchAllErrors: true,
		Journal:        journal,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	select {
	case <-proc.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop to continue past failure")
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v despite catch-all", err)
	}

	journal.mu.Lock()
	defer journal.mu.Unlock()
	if len(journal.records) != 1 {
		t.Fatalf("journal records = %d, want 1", len(journal.records))
	}
	if journal.records[0] != string(errs.KindTransport) {
		t.Errorf("journaled kind = %q, want %q", journal.records[0], errs.KindTransport)
	}
}

func TestSyncerStopIsIdempotent(t *testing.T) {
	cp := newCheckpoint(t, 0)
	s := New(Config{
		Planner:      &fakePlanner{},
		Processor:    &fakeProcessor{},
		Checkpoint:   cp,
		PollInterval: time.Millisecond,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	if !s.Running() {
		t.Error("syncer should report running")
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop returned %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v", err)
	}
}

func TestSyncerDoubleStart(t *testing.T) {
	cp := newCheckpoint(t, 0)
	s := New(Config{
		Planner:      &fakePlanner{},
		Processor:    &fakeProcessor{},
		Checkpoint:   cp,
		PollInterval: time.Millisecond,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail while the loop is active")
	}

	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Start returned %v", err)
	}
}

func TestSyncerStopsOnContextCancel(t *testing.T) {
	cp := newCheckpoint(t, 0)
	s := New(Config{
		Planner:      &fakePlanner{},
		Processor:    &fakeProcessor{},
		Checkpoint:   cp,
		PollInterval: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Start returned %v on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("syncer did not exit on context cancellation")
	}
}
