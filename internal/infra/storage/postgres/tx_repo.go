package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/dasync/internal/core/domain"
)

// TxRepo implements storage.TransactionRepository using PostgreSQL.
type TxRepo struct {
	db *DB
}

// NewTxRepo creates a new PostgreSQL transaction repository.
func NewTxRepo(db *DB) *TxRepo {
	return &TxRepo{db: db}
}

// SaveBatch upserts decoded transactions keyed by (batch_index, tx_index).
func (r *TxRepo) SaveBatch(ctx context.Context, txs []*domain.TransactionEntry) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO transactions (
			batch_index, tx_index, block_number, timestamp, gas_limit, target,
			origin, data, queue_origin, value, queue_index, decoded, confirmed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (batch_index, tx_index) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			timestamp = EXCLUDED.timestamp,
			gas_limit = EXCLUDED.gas_limit,
			target = EXCLUDED.target,
			origin = EXCLUDED.origin,
			data = EXCLUDED.data,
			queue_origin = EXCLUDED.queue_origin,
			value = EXCLUDED.value,
			queue_index = EXCLUDED.queue_index,
			decoded = EXCLUDED.decoded,
			confirmed = EXCLUDED.confirmed
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		var decoded []byte
		if t.Decoded != nil {
			decoded, err = json.Marshal(t.Decoded)
			if err != nil {
				return fmt.Errorf("failed to marshal decoded tx: %w", err)
			}
		}
		var queueIndex *int64
		if t.QueueIndex != nil {
			qi := int64(*t.QueueIndex)
			queueIndex = &qi
		}
		_, err := stmt.ExecContext(ctx,
			int64(t.BatchIndex), int64(t.Index), int64(t.BlockNumber), int64(t.Timestamp),
			t.GasLimit, t.Target, t.Origin, t.Data, string(t.QueueOrigin), t.Value,
			queueIndex, decoded, t.Confirmed,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveByDataStore persists the transactions keyed by data store id.
func (r *TxRepo) SaveByDataStore(ctx context.Context, txs []*domain.TransactionEntry, storeID uint32) error {
	if len(txs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO store_transactions (data_store_id, tx_index, entry)
		VALUES ($1, $2, $3)
		ON CONFLICT (data_store_id, tx_index) DO UPDATE SET
			entry = EXCLUDED.entry
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range txs {
		entry, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal tx: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, int64(storeID), int64(t.Index), entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByBatchIndex retrieves all transactions of one batch, ordered by index.
func (r *TxRepo) GetByBatchIndex(ctx context.Context, batchIndex uint64) ([]*domain.TransactionEntry, error) {
	query := `
		SELECT batch_index, tx_index, block_number, timestamp, gas_limit, target,
		       origin, data, queue_origin, value, queue_index, decoded, confirmed
		FROM transactions
		WHERE batch_index = $1
		ORDER BY tx_index ASC
	`
	rows, err := r.db.QueryxContext(ctx, query, int64(batchIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.TransactionEntry
	for rows.Next() {
		var row txRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// GetByDataStore retrieves the store-scoped transaction set, ordered by index.
func (r *TxRepo) GetByDataStore(ctx context.Context, storeID uint32) ([]*domain.TransactionEntry, error) {
	query := `SELECT entry FROM store_transactions WHERE data_store_id = $1 ORDER BY tx_index ASC`
	rows, err := r.db.QueryContext(ctx, query, int64(storeID))
	if err != nil {
		return nil, fmt.Errorf("failed to query store transactions: %w", err)
	}
	defer rows.Close()

	var out []*domain.TransactionEntry
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan store transaction: %w", err)
		}
		var entry domain.TransactionEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal store transaction: %w", err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// ReplaceTxList replaces the explorer-style transaction list of a data store
// wholesale, in one transaction.
func (r *TxRepo) ReplaceTxList(ctx context.Context, entries []domain.TransactionListEntry, storeID uint32) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tx_list WHERE data_store_id = $1`, int64(storeID)); err != nil {
		return fmt.Errorf("failed to clear tx list: %w", err)
	}

	query := `
		INSERT INTO tx_list (data_store_id, tx_index, block_number, tx_hash)
		VALUES ($1, $2, $3, $4)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, int64(storeID), int64(e.Index), int64(e.BlockNumber), e.TxHash); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTxList retrieves the explorer-style transaction list of a data store.
func (r *TxRepo) GetTxList(ctx context.Context, storeID uint32) ([]domain.TransactionListEntry, error) {
	var out []domain.TransactionListEntry
	query := `
		SELECT tx_index, block_number, tx_hash
		FROM tx_list
		WHERE data_store_id = $1
		ORDER BY tx_index ASC
	`
	if err := r.db.SelectContext(ctx, &out, query, int64(storeID)); err != nil {
		return nil, fmt.Errorf("failed to query tx list: %w", err)
	}
	return out, nil
}

type txRow struct {
	BatchIndex  int64   `db:"batch_index"`
	TxIndex     int64   `db:"tx_index"`
	BlockNumber int64   `db:"block_number"`
	Timestamp   int64   `db:"timestamp"`
	GasLimit    string  `db:"gas_limit"`
	Target      string  `db:"target"`
	Origin      *string `db:"origin"`
	Data        string  `db:"data"`
	QueueOrigin string  `db:"queue_origin"`
	Value       string  `db:"value"`
	QueueIndex  *int64  `db:"queue_index"`
	Decoded     []byte  `db:"decoded"`
	Confirmed   bool    `db:"confirmed"`
}

func (t *txRow) toDomain() (*domain.TransactionEntry, error) {
	entry := &domain.TransactionEntry{
		Index:       uint64(t.TxIndex),
		BatchIndex:  uint64(t.BatchIndex),
		BlockNumber: uint64(t.BlockNumber),
		Timestamp:   uint64(t.Timestamp),
		GasLimit:    t.GasLimit,
		Target:      t.Target,
		Origin:      t.Origin,
		Data:        t.Data,
		QueueOrigin: domain.QueueOrigin(t.QueueOrigin),
		Value:       t.Value,
		Confirmed:   t.Confirmed,
	}
	if t.QueueIndex != nil {
		qi := uint64(*t.QueueIndex)
		entry.QueueIndex = &qi
	}
	if len(t.Decoded) > 0 {
		var decoded domain.DecodedTransaction
		if err := json.Unmarshal(t.Decoded, &decoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decoded tx: %w", err)
		}
		entry.Decoded = &decoded
	}
	return entry, nil
}
