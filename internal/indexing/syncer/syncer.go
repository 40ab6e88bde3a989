// Package syncer drives the batch synchronization loop.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vietddude/dasync/internal/core/checkpoint"
	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/core/errs"
	"github.com/vietddude/dasync/internal/indexing/metrics"
)

// RangeSource plans the next batch-index window.
type RangeSource interface {
	Next(ctx context.Context, checkpoint uint64) (domain.BatchRange, error)
}

// BatchProcessor handles one planned window.
type BatchProcessor interface {
	Process(ctx context.Context, r domain.BatchRange) error
}

// FailureJournal records swallowed failures for operator inspection.
type FailureJournal interface {
	Record(ctx context.Context, rangeStart, rangeEnd uint64, kind, message string) error
}

// Config holds syncer configuration.
type Config struct {
	Planner    RangeSource
	Processor  BatchProcessor
	Checkpoint *checkpoint.Manager

	// PollInterval is the sleep after a work-bearing iteration and the idle
	// pause when there is no new work.
	PollInterval time.Duration

	// CatchAllErrors records otherwise-fatal failures and keeps the loop
	// running instead of terminating the service.
	CatchAllErrors bool

	// Journal is optional; nil disables failure journaling.
	Journal FailureJournal
}

// Syncer owns the run loop. A single logical worker: no parallel fan-out
// across batch indices, no internal locking on the checkpoint. Cancellation
// is cooperative between iterations; a window in progress runs to completion
// or failure before a stop request is observed.
type Syncer struct {
	cfg     Config
	running atomic.Bool
	stop    chan struct{}
}

// New creates a new syncer.
func New(cfg Config) *Syncer {
	return &Syncer{
		cfg:  cfg,
		stop: make(chan struct{}),
	}
}

// Start runs the synchronization loop until the context is canceled, Stop is
// called, or a fatal failure propagates.
func (s *Syncer) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("syncer already running")
	}
	defer s.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		default:
		}

		r, err := s.cfg.Planner.Next(ctx, s.cfg.Checkpoint.Current())
		if err != nil {
			if fatal := s.handleFailure(ctx, domain.BatchRange{}, err); fatal != nil {
				return fatal
			}
			continue
		}

		if r.Empty() {
			// No new work. Waiting the polling interval avoids hot-spinning
			// against the remote latest-index endpoint.
			s.sleep(ctx, s.cfg.PollInterval)
			continue
		}

		slog.Info("Syncing batch range", "start", r.Start, "end", r.End, "width", r.Width())

		if err := s.cfg.Processor.Process(ctx, r); err != nil {
			if errs.IsMissingElement(err) {
				// The checkpoint did not advance past the unresolved index,
				// so the next pass naturally retries the same window.
				metrics.MissingElementRetries.Inc()
				slog.Warn("Missing element, retrying window on next pass",
					"start", r.Start, "end", r.End, "error", err)
				s.sleep(ctx, s.cfg.PollInterval)
				continue
			}
			if fatal := s.handleFailure(ctx, r, err); fatal != nil {
				return fatal
			}
			continue
		}

		slog.Debug("Batch range synchronized",
			"start", r.Start, "end", r.End, "checkpoint", s.cfg.Checkpoint.Current())
		s.sleep(ctx, s.cfg.PollInterval)
	}
}

// Stop requests a graceful stop. The loop exits after the window in progress
// completes.
func (s *Syncer) Stop() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return nil
}

// Running reports whether the loop is active.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// handleFailure applies the fatal-vs-swallowed policy. Returns the error
// when the service must terminate; nil when the failure was recorded and the
// loop should continue.
func (s *Syncer) handleFailure(ctx context.Context, r domain.BatchRange, err error) error {
	if !s.stopRequested() && !s.cfg.CatchAllErrors {
		return fmt.Errorf("batch sync failed: %w", err)
	}

	kind := errs.Classify(err)
	metrics.SwallowedErrors.Inc()
	slog.Error("Sync failure swallowed",
		"start", r.Start, "end", r.End, "kind", kind, "error", err)

	if s.cfg.Journal != nil {
		if jerr := s.cfg.Journal.Record(ctx, r.Start, r.End, string(kind), err.Error()); jerr != nil {
			slog.Warn("Failed to journal sync failure", "error", jerr)
		}
	}

	s.sleep(ctx, s.cfg.PollInterval)
	return nil
}

func (s *Syncer) stopRequested() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// sleep waits for d unless the loop is asked to stop first.
func (s *Syncer) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-s.stop:
	case <-timer.C:
	}
}
