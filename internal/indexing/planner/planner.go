// Package planner computes the next batch-index window to synchronize.
package planner

import (
	"context"
	"fmt"

	"github.com/vietddude/dasync/internal/core/domain"
)

// LatestIndexSource reports the highest batch index the DA layer has
// produced.
type LatestIndexSource interface {
	LatestTransactionBatchIndex(ctx context.Context) (uint64, error)
}

// Planner bounds how much remote work one pass may fetch. Capping the window
// prevents unbounded catch-up bursts after downtime while still making full
// progress when the gap is small.
type Planner struct {
	source   LatestIndexSource
	stepSize uint64
}

// New creates a planner with the given step size.
func New(source LatestIndexSource, stepSize uint64) *Planner {
	return &Planner{source: source, stepSize: stepSize}
}

// Next queries the DA layer's latest index and plans the window starting at
// the checkpoint. A failed latest-index query propagates; a guessed value
// must never be treated as ground truth.
func (p *Planner) Next(ctx context.Context, checkpoint uint64) (domain.BatchRange, error) {
	latest, err := p.source.LatestTransactionBatchIndex(ctx)
	if err != nil {
		return domain.BatchRange{}, fmt.Errorf("plan next range: %w", err)
	}
	return Plan(checkpoint, latest, p.stepSize), nil
}

// Plan returns the half-open window [checkpoint, end) of at most stepSize
// indices. When the remote has nothing beyond the checkpoint the range is
// empty and the caller treats it as "no work".
func Plan(checkpoint, remoteLatestIndex, stepSize uint64) domain.BatchRange {
	if remoteLatestIndex <= checkpoint {
		return domain.BatchRange{Start: checkpoint, End: remoteLatestIndex}
	}

	width := remoteLatestIndex - checkpoint
	if width > stepSize {
		width = stepSize
	}
	return domain.BatchRange{Start: checkpoint, End: checkpoint + width}
}
