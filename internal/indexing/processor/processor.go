// Package processor mirrors one window of confirmed rollup batches into the
// local store and advances the durable checkpoint.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/dasync/internal/core/checkpoint"
	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/indexing/decoder"
	"github.com/vietddude/dasync/internal/indexing/metrics"
	"github.com/vietddude/dasync/internal/infra/da"
	"github.com/vietddude/dasync/internal/infra/storage"
)

// DAReader is the slice of the DA client the processor consumes.
type DAReader interface {
	RollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error)
	DataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error)
	BatchTransactionsByDataStoreID(ctx context.Context, storeNumber uint32) ([]da.BatchTransaction, error)
	TransactionListByStoreNumber(ctx context.Context, storeNumber uint32) ([]domain.TransactionListEntry, error)
}

// Config holds processor dependencies.
type Config struct {
	DA           DAReader
	Checkpoint   *checkpoint.Manager
	Enqueues     storage.EnqueueRepository
	Transactions storage.TransactionRepository
	Stores       storage.StoreRepository
	L2ChainID    uint64
}

// Processor handles one batch index at a time, strictly in increasing
// order: later indices assume earlier ones are already durably recorded.
type Processor struct {
	cfg Config
}

// New creates a batch processor.
func New(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// Process iterates the window sequentially. The pass stops cleanly when the
// DA layer has not produced an index yet (zero data store id, or the store
// metadata is absent); the checkpoint stays at the last fully-handled index
// and the next pass re-plans from there. Hard failures propagate without
// advancing the checkpoint past the failing index.
func (p *Processor) Process(ctx context.Context, r domain.BatchRange) error {
	for index := r.Start; index < r.End; index++ {
		rollupStore, err := p.cfg.DA.RollupStoreByBatchIndex(ctx, index)
		if err != nil {
			return err
		}
		if rollupStore.DataStoreID == 0 {
			slog.Info("DA layer has not produced batch index yet, stopping pass", "batch_index", index)
			return nil
		}

		dataStore, err := p.cfg.DA.DataStoreByID(ctx, rollupStore.DataStoreID)
		if err != nil {
			return err
		}
		if dataStore == nil {
			slog.Info("Data store not available yet, stopping pass",
				"batch_index", index, "store_id", rollupStore.DataStoreID)
			return nil
		}

		if dataStore.Confirmed {
			if err := p.syncConfirmedStore(ctx, index, rollupStore, dataStore); err != nil {
				return fmt.Errorf("sync batch %d: %w", index, err)
			}
			metrics.BatchesProcessed.WithLabelValues("confirmed").Inc()
		} else {
			// Unconfirmed stores are acknowledged and skipped, not retried
			// indefinitely: the checkpoint still advances.
			slog.Info("Data store not confirmed, skipping transactions",
				"batch_index", index, "store_id", rollupStore.DataStoreID)
			metrics.BatchesProcessed.WithLabelValues("unconfirmed").Inc()
		}

		if err := p.cfg.Checkpoint.Advance(ctx, index); err != nil {
			return err
		}
		slog.Debug("Batch index synchronized", "batch_index", index, "store_id", rollupStore.DataStoreID)
	}
	return nil
}

func (p *Processor) syncConfirmedStore(ctx context.Context, index uint64, rollupStore *domain.RollupStoreEntry, dataStore *domain.DataStoreEntry) error {
	storeID := rollupStore.DataStoreID

	// Rebuild the explorer index wholesale. A failed fetch only costs the
	// secondary lookup, so it is logged and skipped rather than failing the
	// batch.
	txList, err := p.cfg.DA.TransactionListByStoreNumber(ctx, storeID)
	if err != nil {
		slog.Warn("Failed to fetch tx list, keeping previous explorer index",
			"store_id", storeID, "error", err)
	} else if err := p.cfg.Transactions.ReplaceTxList(ctx, txList, storeID); err != nil {
		return err
	}

	rawTxs, err := p.cfg.DA.BatchTransactionsByDataStoreID(ctx, storeID)
	if err != nil {
		// A store with no retrievable transactions is valid; continue to
		// checkpoint advancement.
		slog.Warn("Failed to fetch batch transactions", "store_id", storeID, "error", err)
	}

	if len(rawTxs) == 0 {
		slog.Info("Data store has no transactions", "batch_index", index, "store_id", storeID)
	} else {
		params := decoder.Params{BatchIndex: index, L2ChainID: p.cfg.L2ChainID}
		txs := make([]*domain.TransactionEntry, 0, len(rawTxs))
		for _, raw := range rawTxs {
			entry, err := decoder.Decode(ctx, raw, params, p.cfg.Enqueues.GetByIndex)
			if err != nil {
				return err
			}
			txs = append(txs, entry)
		}

		if err := p.cfg.Transactions.SaveBatch(ctx, txs); err != nil {
			return err
		}
		if err := p.cfg.Transactions.SaveByDataStore(ctx, txs, storeID); err != nil {
			return err
		}
	}

	if err := p.cfg.Stores.SaveRollupStoreByBatchIndex(ctx, rollupStore, index); err != nil {
		return err
	}
	if err := p.cfg.Stores.SaveDataStoreByID(ctx, dataStore, storeID); err != nil {
		return err
	}
	return nil
}
