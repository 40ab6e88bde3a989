package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vietddude/dasync/internal/core/domain"
)

// EnqueueRepo implements storage.EnqueueRepository using PostgreSQL.
type EnqueueRepo struct {
	db *DB
}

// NewEnqueueRepo creates a new PostgreSQL enqueue repository.
func NewEnqueueRepo(db *DB) *EnqueueRepo {
	return &EnqueueRepo{db: db}
}

// GetByIndex retrieves an enqueue record by queue index.
func (r *EnqueueRepo) GetByIndex(ctx context.Context, queueIndex uint64) (*domain.EnqueueEntry, error) {
	var entry domain.EnqueueEntry
	query := `SELECT queue_index, gas_limit, target, origin FROM enqueues WHERE queue_index = $1`
	err := r.db.GetContext(ctx, &entry, query, int64(queueIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enqueue: %w", err)
	}
	return &entry, nil
}

// Save upserts an enqueue record.
func (r *EnqueueRepo) Save(ctx context.Context, entry *domain.EnqueueEntry) error {
	query := `
		INSERT INTO enqueues (queue_index, gas_limit, target, origin)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (queue_index) DO UPDATE SET
			gas_limit = EXCLUDED.gas_limit,
			target = EXCLUDED.target,
			origin = EXCLUDED.origin
	`
	_, err := r.db.ExecContext(ctx, query,
		int64(entry.QueueIndex), entry.GasLimit, entry.Target, entry.Origin,
	)
	if err != nil {
		return fmt.Errorf("failed to save enqueue: %w", err)
	}
	return nil
}
