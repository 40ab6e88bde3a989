package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/dasync/internal/core/domain"
)

type fakeSource struct {
	latest uint64
	err    error
}

func (f *fakeSource) LatestTransactionBatchIndex(ctx context.Context) (uint64, error) {
	return f.latest, f.err
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		checkpoint uint64
		latest     uint64
		stepSize   uint64
		want       domain.BatchRange
	}{
		{
			name:       "wide gap is capped by step size",
			checkpoint: 10, latest: 100, stepSize: 20,
			want: domain.BatchRange{Start: 10, End: 30},
		},
		{
			name:       "small gap is taken whole",
			checkpoint: 10, latest: 15, stepSize: 20,
			want: domain.BatchRange{Start: 10, End: 15},
		},
		{
			name:       "caught up yields empty range",
			checkpoint: 50, latest: 50, stepSize: 20,
			want: domain.BatchRange{Start: 50, End: 50},
		},
		{
			name:       "remote behind yields empty range",
			checkpoint: 60, latest: 50, stepSize: 20,
			want: domain.BatchRange{Start: 60, End: 50},
		},
		{
			name:       "from genesis",
			checkpoint: 0, latest: 5, stepSize: 100,
			want: domain.BatchRange{Start: 0, End: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.checkpoint, tt.latest, tt.stepSize)
			if got != tt.want {
				t.Errorf("Plan(%d, %d, %d) = %+v, want %+v",
					tt.checkpoint, tt.latest, tt.stepSize, got, tt.want)
			}
		})
	}
}

func TestPlanEmptyRanges(t *testing.T) {
	if !Plan(50, 50, 20).Empty() {
		t.Error("caught-up range should be empty")
	}
	if !Plan(60, 50, 20).Empty() {
		t.Error("remote-behind range should be empty")
	}
	if Plan(10, 11, 20).Empty() {
		t.Error("one-index range should not be empty")
	}
}

func TestNextPropagatesSourceError(t *testing.T) {
	srcErr := errors.New("upstream unavailable")
	p := New(&fakeSource{err: srcErr}, 20)

	_, err := p.Next(context.Background(), 10)
	if !errors.Is(err, srcErr) {
		t.Fatalf("Next error = %v, want wrapped %v", err, srcErr)
	}
}

func TestNextUsesRemoteLatest(t *testing.T) {
	p := New(&fakeSource{latest: 42}, 100)

	r, err := p.Next(context.Background(), 40)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	want := domain.BatchRange{Start: 40, End: 42}
	if r != want {
		t.Errorf("Next = %+v, want %+v", r, want)
	}
}
