package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vietddude/dasync/internal/core/domain"
)

// StoreRepo implements storage.StoreRepository using PostgreSQL. Rollup store
// mappings get explicit columns; the immutable data store metadata is kept
// verbatim as JSONB next to the columns the service queries.
type StoreRepo struct {
	db *DB
}

// NewStoreRepo creates a new PostgreSQL store repository.
func NewStoreRepo(db *DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// SaveRollupStoreByBatchIndex upserts the batch-index -> data-store mapping.
func (r *StoreRepo) SaveRollupStoreByBatchIndex(ctx context.Context, entry *domain.RollupStoreEntry, batchIndex uint64) error {
	query := `
		INSERT INTO rollup_stores (batch_index, data_store_id, status, confirm_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (batch_index) DO UPDATE SET
			data_store_id = EXCLUDED.data_store_id,
			status = EXCLUDED.status,
			confirm_at = EXCLUDED.confirm_at
	`
	_, err := r.db.ExecContext(ctx, query,
		int64(batchIndex), int64(entry.DataStoreID), int32(entry.Status), int64(entry.ConfirmAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save rollup store: %w", err)
	}
	return nil
}

// GetRollupStoreByBatchIndex retrieves a mapping.
func (r *StoreRepo) GetRollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error) {
	var entry domain.RollupStoreEntry
	query := `SELECT batch_index, data_store_id, status, confirm_at FROM rollup_stores WHERE batch_index = $1`
	err := r.db.GetContext(ctx, &entry, query, int64(batchIndex))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rollup store: %w", err)
	}
	return &entry, nil
}

// SaveDataStoreByID upserts a full data store record keyed by its id.
func (r *StoreRepo) SaveDataStoreByID(ctx context.Context, entry *domain.DataStoreEntry, storeID uint32) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal data store: %w", err)
	}

	query := `
		INSERT INTO data_stores (store_id, confirmed, init_time, expire_time, data_commitment, entry)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (store_id) DO UPDATE SET
			confirmed = EXCLUDED.confirmed,
			init_time = EXCLUDED.init_time,
			expire_time = EXCLUDED.expire_time,
			data_commitment = EXCLUDED.data_commitment,
			entry = EXCLUDED.entry
	`
	_, err = r.db.ExecContext(ctx, query,
		int64(storeID), entry.Confirmed, int64(entry.InitTime), int64(entry.ExpireTime),
		entry.DataCommitment, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to save data store: %w", err)
	}
	return nil
}

// GetDataStoreByID retrieves a data store record.
func (r *StoreRepo) GetDataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT entry FROM data_stores WHERE store_id = $1`, int64(storeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data store: %w", err)
	}

	var entry domain.DataStoreEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data store: %w", err)
	}
	return &entry, nil
}
