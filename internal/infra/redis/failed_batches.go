package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FailedBatch records a sync failure that was swallowed by the
// catch-all-errors policy, so operators can inspect what the loop skipped
// over without trawling logs.
type FailedBatch struct {
	ID         string `json:"id"`
	RangeStart uint64 `json:"range_start"`
	RangeEnd   uint64 `json:"range_end"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	RecordedAt int64  `json:"recorded_at"`
}

// FailedBatchJournal persists swallowed failures to Redis.
type FailedBatchJournal struct {
	rdb *redis.Client
}

// NewFailedBatchJournal creates a Redis-backed failure journal.
func NewFailedBatchJournal(client *Client) *FailedBatchJournal {
	return &FailedBatchJournal{rdb: client.rdb}
}

// Key helpers
func (j *FailedBatchJournal) queueKey() string {
	return "failed_batches"
}

func (j *FailedBatchJournal) entryKey(id string) string {
	return fmt.Sprintf("failed_batch:%s", id)
}

// Record journals one swallowed failure. Entries expire after 24h.
func (j *FailedBatchJournal) Record(ctx context.Context, rangeStart, rangeEnd uint64, kind, message string) error {
	fb := FailedBatch{
		ID:         uuid.NewString(),
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Kind:       kind,
		Message:    message,
		RecordedAt: time.Now().Unix(),
	}

	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal failed batch: %w", err)
	}

	if err := j.rdb.Set(ctx, j.entryKey(fb.ID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set failed batch: %w", err)
	}

	// Sorted set ordered by recording time so GetAll returns oldest first
	if err := j.rdb.ZAdd(ctx, j.queueKey(), redis.Z{
		Score:  float64(fb.RecordedAt),
		Member: fb.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// GetAll retrieves all journaled failures, oldest first.
func (j *FailedBatchJournal) GetAll(ctx context.Context) ([]*FailedBatch, error) {
	ids, err := j.rdb.ZRange(ctx, j.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	var out []*FailedBatch
	for _, id := range ids {
		data, err := j.rdb.Get(ctx, j.entryKey(id)).Bytes()
		if err == redis.Nil {
			// Entry expired but ID still in queue, remove it
			j.rdb.ZRem(ctx, j.queueKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get failed: %w", err)
		}

		var fb FailedBatch
		if err := json.Unmarshal(data, &fb); err != nil {
			return nil, fmt.Errorf("failed to unmarshal failed batch: %w", err)
		}
		out = append(out, &fb)
	}

	return out, nil
}

// Count returns the number of journaled failures.
func (j *FailedBatchJournal) Count(ctx context.Context) (int64, error) {
	return j.rdb.ZCard(ctx, j.queueKey()).Result()
}
