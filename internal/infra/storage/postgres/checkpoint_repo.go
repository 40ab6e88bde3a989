package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CheckpointRepo implements storage.CheckpointRepository using PostgreSQL.
// The checkpoint is a single row; writes are durable on return.
type CheckpointRepo struct {
	db *DB
}

// NewCheckpointRepo creates a new PostgreSQL checkpoint repository.
func NewCheckpointRepo(db *DB) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

// GetLastBatchIndex retrieves the persisted checkpoint.
func (r *CheckpointRepo) GetLastBatchIndex(ctx context.Context) (uint64, bool, error) {
	var index int64
	err := r.db.GetContext(ctx, &index, `SELECT last_batch_index FROM sync_checkpoint WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return uint64(index), true, nil
}

// SetLastBatchIndex durably stores the checkpoint.
func (r *CheckpointRepo) SetLastBatchIndex(ctx context.Context, index uint64) error {
	query := `
		INSERT INTO sync_checkpoint (id, last_batch_index, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			last_batch_index = EXCLUDED.last_batch_index,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, int64(index)); err != nil {
		return fmt.Errorf("failed to set checkpoint: %w", err)
	}
	return nil
}
