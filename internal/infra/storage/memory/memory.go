package memory

import (
	"context"
	"sync"

	"github.com/vietddude/dasync/internal/core/domain"
)

// MemoryStorage backs the repository interfaces with maps. Used by tests and
// as a stand-in when no database is configured.
type MemoryStorage struct {
	mu sync.RWMutex

	checkpoint    uint64
	checkpointSet bool

	enqueues   map[uint64]*domain.EnqueueEntry
	txs        map[uint64]map[uint64]*domain.TransactionEntry // batch index -> tx index
	storeTxs   map[uint32][]*domain.TransactionEntry
	txLists    map[uint32][]domain.TransactionListEntry
	rollups    map[uint64]*domain.RollupStoreEntry
	dataStores map[uint32]*domain.DataStoreEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		enqueues:   make(map[uint64]*domain.EnqueueEntry),
		txs:        make(map[uint64]map[uint64]*domain.TransactionEntry),
		storeTxs:   make(map[uint32][]*domain.TransactionEntry),
		txLists:    make(map[uint32][]domain.TransactionListEntry),
		rollups:    make(map[uint64]*domain.RollupStoreEntry),
		dataStores: make(map[uint32]*domain.DataStoreEntry),
	}
}

// -----------------------------------------------------------------------------
// Checkpoint Repository
// -----------------------------------------------------------------------------

type CheckpointRepo struct {
	store *MemoryStorage
}

func NewCheckpointRepo(store *MemoryStorage) *CheckpointRepo {
	return &CheckpointRepo{store: store}
}

func (r *CheckpointRepo) GetLastBatchIndex(ctx context.Context) (uint64, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.checkpoint, r.store.checkpointSet, nil
}

func (r *CheckpointRepo) SetLastBatchIndex(ctx context.Context, index uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.checkpoint = index
	r.store.checkpointSet = true
	return nil
}

// -----------------------------------------------------------------------------
// Enqueue Repository
// -----------------------------------------------------------------------------

type EnqueueRepo struct {
	store *MemoryStorage
}

func NewEnqueueRepo(store *MemoryStorage) *EnqueueRepo {
	return &EnqueueRepo{store: store}
}

func (r *EnqueueRepo) GetByIndex(ctx context.Context, queueIndex uint64) (*domain.EnqueueEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entry, ok := r.store.enqueues[queueIndex]
	if !ok {
		return nil, nil
	}
	e := *entry
	return &e, nil
}

func (r *EnqueueRepo) Save(ctx context.Context, entry *domain.EnqueueEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e := *entry
	r.store.enqueues[entry.QueueIndex] = &e
	return nil
}

// -----------------------------------------------------------------------------
// Transaction Repository
// -----------------------------------------------------------------------------

type TxRepo struct {
	store *MemoryStorage
}

func NewTxRepo(store *MemoryStorage) *TxRepo {
	return &TxRepo{store: store}
}

func (r *TxRepo) SaveBatch(ctx context.Context, txs []*domain.TransactionEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range txs {
		byIndex, ok := r.store.txs[tx.BatchIndex]
		if !ok {
			byIndex = make(map[uint64]*domain.TransactionEntry)
			r.store.txs[tx.BatchIndex] = byIndex
		}
		t := *tx
		byIndex[tx.Index] = &t
	}
	return nil
}

func (r *TxRepo) SaveByDataStore(ctx context.Context, txs []*domain.TransactionEntry, storeID uint32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := make([]*domain.TransactionEntry, 0, len(txs))
	for _, tx := range txs {
		t := *tx
		copied = append(copied, &t)
	}
	r.store.storeTxs[storeID] = copied
	return nil
}

func (r *TxRepo) GetByBatchIndex(ctx context.Context, batchIndex uint64) ([]*domain.TransactionEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	byIndex, ok := r.store.txs[batchIndex]
	if !ok {
		return nil, nil
	}
	out := make([]*domain.TransactionEntry, 0, len(byIndex))
	for _, tx := range byIndex {
		t := *tx
		out = append(out, &t)
	}
	return out, nil
}

func (r *TxRepo) GetByDataStore(ctx context.Context, storeID uint32) ([]*domain.TransactionEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	txs := r.store.storeTxs[storeID]
	out := make([]*domain.TransactionEntry, 0, len(txs))
	for _, tx := range txs {
		t := *tx
		out = append(out, &t)
	}
	return out, nil
}

func (r *TxRepo) ReplaceTxList(ctx context.Context, entries []domain.TransactionListEntry, storeID uint32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.txLists[storeID] = append([]domain.TransactionListEntry(nil), entries...)
	return nil
}

func (r *TxRepo) GetTxList(ctx context.Context, storeID uint32) ([]domain.TransactionListEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]domain.TransactionListEntry(nil), r.store.txLists[storeID]...), nil
}

// -----------------------------------------------------------------------------
// Store Repository
// -----------------------------------------------------------------------------

type StoreRepo struct {
	store *MemoryStorage
}

func NewStoreRepo(store *MemoryStorage) *StoreRepo {
	return &StoreRepo{store: store}
}

func (r *StoreRepo) SaveRollupStoreByBatchIndex(ctx context.Context, entry *domain.RollupStoreEntry, batchIndex uint64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e := *entry
	e.BatchIndex = batchIndex
	r.store.rollups[batchIndex] = &e
	return nil
}

func (r *StoreRepo) GetRollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entry, ok := r.store.rollups[batchIndex]
	if !ok {
		return nil, nil
	}
	e := *entry
	return &e, nil
}

func (r *StoreRepo) SaveDataStoreByID(ctx context.Context, entry *domain.DataStoreEntry, storeID uint32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e := *entry
	e.StoreID = storeID
	r.store.dataStores[storeID] = &e
	return nil
}

func (r *StoreRepo) GetDataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entry, ok := r.store.dataStores[storeID]
	if !ok {
		return nil, nil
	}
	e := *entry
	return &e, nil
}
