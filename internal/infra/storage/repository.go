package storage

import (
	"context"

	"github.com/vietddude/dasync/internal/core/domain"
)

// CheckpointRepository persists the last fully-handled batch index. It is the
// only state that survives restarts.
type CheckpointRepository interface {
	// GetLastBatchIndex retrieves the checkpoint. ok is false when the
	// checkpoint was never written.
	GetLastBatchIndex(ctx context.Context) (index uint64, ok bool, err error)

	// SetLastBatchIndex durably stores the checkpoint.
	SetLastBatchIndex(ctx context.Context, index uint64) error
}

// EnqueueRepository reads previously ingested L1 enqueue records.
type EnqueueRepository interface {
	// GetByIndex retrieves an enqueue by queue index. Returns (nil, nil) when
	// no record exists; the decoder then keeps its defaults.
	GetByIndex(ctx context.Context, queueIndex uint64) (*domain.EnqueueEntry, error)

	// Save stores an enqueue record (upsert).
	Save(ctx context.Context, entry *domain.EnqueueEntry) error
}

// TransactionRepository handles canonical transaction storage.
type TransactionRepository interface {
	// SaveBatch upserts decoded transactions keyed by (batch index, tx index).
	SaveBatch(ctx context.Context, txs []*domain.TransactionEntry) error

	// SaveByDataStore additionally persists the same transactions keyed by
	// data store id for store-scoped retrieval.
	SaveByDataStore(ctx context.Context, txs []*domain.TransactionEntry, storeID uint32) error

	// GetByBatchIndex retrieves all transactions of one batch.
	GetByBatchIndex(ctx context.Context, batchIndex uint64) ([]*domain.TransactionEntry, error)

	// GetByDataStore retrieves the store-scoped transaction set.
	GetByDataStore(ctx context.Context, storeID uint32) ([]*domain.TransactionEntry, error)

	// ReplaceTxList replaces the explorer-style transaction list of a data
	// store wholesale.
	ReplaceTxList(ctx context.Context, entries []domain.TransactionListEntry, storeID uint32) error

	// GetTxList retrieves the explorer-style transaction list of a data store.
	GetTxList(ctx context.Context, storeID uint32) ([]domain.TransactionListEntry, error)
}

// StoreRepository handles rollup store mappings and data store metadata.
type StoreRepository interface {
	// SaveRollupStoreByBatchIndex upserts the batch-index -> data-store mapping.
	SaveRollupStoreByBatchIndex(ctx context.Context, entry *domain.RollupStoreEntry, batchIndex uint64) error

	// GetRollupStoreByBatchIndex retrieves a mapping. Returns (nil, nil) when absent.
	GetRollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error)

	// SaveDataStoreByID upserts a full data store record keyed by its id.
	SaveDataStoreByID(ctx context.Context, entry *domain.DataStoreEntry, storeID uint32) error

	// GetDataStoreByID retrieves a data store record. Returns (nil, nil) when absent.
	GetDataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error)
}
