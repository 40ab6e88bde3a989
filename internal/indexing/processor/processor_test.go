package processor

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/vietddude/dasync/internal/core/checkpoint"
	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/infra/da"
	"github.com/vietddude/dasync/internal/infra/storage/memory"
)

// fakeDA serves a fixed set of batch indices. Indices at or beyond
// producedUpTo return the zero-store sentinel.
type fakeDA struct {
	producedUpTo uint64
	confirmed    map[uint64]bool
	txsByStore   map[uint32][]da.BatchTransaction
	storeErr     error

	storeCalls []uint64
}

func (f *fakeDA) RollupStoreByBatchIndex(ctx context.Context, batchIndex uint64) (*domain.RollupStoreEntry, error) {
	f.storeCalls = append(f.storeCalls, batchIndex)
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	if batchIndex >= f.producedUpTo {
		return &domain.RollupStoreEntry{BatchIndex: batchIndex, DataStoreID: 0}, nil
	}
	return &domain.RollupStoreEntry{
		BatchIndex:  batchIndex,
		DataStoreID: uint32(batchIndex) + 1,
		Status:      2,
	}, nil
}

func (f *fakeDA) DataStoreByID(ctx context.Context, storeID uint32) (*domain.DataStoreEntry, error) {
	confirmed := true
	if f.confirmed != nil {
		confirmed = f.confirmed[uint64(storeID)-1]
	}
	return &domain.DataStoreEntry{
		StoreID:     storeID,
		StoreNumber: storeID,
		Confirmed:   confirmed,
	}, nil
}

func (f *fakeDA) BatchTransactionsByDataStoreID(ctx context.Context, storeNumber uint32) ([]da.BatchTransaction, error) {
	return f.txsByStore[storeNumber], nil
}

func (f *fakeDA) TransactionListByStoreNumber(ctx context.Context, storeNumber uint32) ([]domain.TransactionListEntry, error) {
	return nil, nil
}

type fixture struct {
	proc       *Processor
	checkpoint *checkpoint.Manager
	store      *memory.MemoryStorage
	txRepo     *memory.TxRepo
	storeRepo  *memory.StoreRepo
}

func newFixture(t *testing.T, reader DAReader, initial uint64) *fixture {
	t.Helper()
	store := memory.NewMemoryStorage()
	mgr := checkpoint.NewManager(memory.NewCheckpointRepo(store))
	if _, err := mgr.Load(context.Background(), initial); err != nil {
		t.Fatal(err)
	}

	txRepo := memory.NewTxRepo(store)
	storeRepo := memory.NewStoreRepo(store)
	proc := New(Config{
		DA:           reader,
		Checkpoint:   mgr,
		Enqueues:     memory.NewEnqueueRepo(store),
		Transactions: txRepo,
		Stores:       storeRepo,
		L2ChainID:    1088,
	})
	return &fixture{proc: proc, checkpoint: mgr, store: store, txRepo: txRepo, storeRepo: storeRepo}
}

func rawTx(index uint64) da.BatchTransaction {
	return da.BatchTransaction{
		TxMeta: da.TxMeta{
			Index:          index,
			L1BlockNumber:  100 + index,
			L1Timestamp:    1700000000 + index,
			RawTransaction: base64.StdEncoding.EncodeToString([]byte{byte(index)}),
		},
		TxDetail: da.TxDetail{
			Nonce:    index,
			GasPrice: "1000000000",
			Gas:      21000,
			Value:    "0",
			V:        2212,
			R:        "0x01",
			S:        "0x02",
		},
	}
}

func TestProcessConfirmedWindow(t *testing.T) {
	ctx := context.Background()
	reader := &fakeDA{
		producedUpTo: 20,
		txsByStore: map[uint32][]da.BatchTransaction{
			11: {rawTx(0), rawTx(1)},
			12: {rawTx(2)},
		},
	}
	f := newFixture(t, reader, 10)

	if err := f.proc.Process(ctx, domain.BatchRange{Start: 10, End: 12}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if got := f.checkpoint.Current(); got != 11 {
		t.Errorf("checkpoint = %d, want 11", got)
	}

	txs, err := f.txRepo.GetByBatchIndex(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("batch 10 txs = %d, want 2", len(txs))
	}
	if txs[0].BatchIndex != 10 || !txs[0].Confirmed {
		t.Errorf("unexpected tx record: %+v", txs[0])
	}

	byStore, err := f.txRepo.GetByDataStore(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(byStore) != 2 {
		t.Errorf("store 11 txs = %d, want 2", len(byStore))
	}

	rs, err := f.storeRepo.GetRollupStoreByBatchIndex(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rs == nil || rs.DataStoreID != 11 {
		t.Errorf("rollup store entry = %+v, want data store id 11", rs)
	}
	ds, err := f.storeRepo.GetDataStoreByID(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if ds == nil {
		t.Error("data store 11 not persisted")
	}
}

func TestProcessStopsAtUnproducedIndex(t *testing.T) {
	ctx := context.Background()
	reader := &fakeDA{producedUpTo: 12}
	f := newFixture(t, reader, 10)

	if err := f.proc.Process(ctx, domain.BatchRange{Start: 10, End: 20}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	// Indices 10 and 11 are handled; 12 hits the zero-store sentinel and
	// the pass stops without touching 13..19.
	if got := f.checkpoint.Current(); got != 11 {
		t.Errorf("checkpoint = %d, want 11", got)
	}
	last := reader.storeCalls[len(reader.storeCalls)-1]
	if last != 12 {
		t.Errorf("last fetched index = %d, want 12", last)
	}
}

func TestProcessSkipsUnconfirmedStore(t *testing.T) {
	ctx := context.Background()
	reader := &fakeDA{
		producedUpTo: 20,
		confirmed:    map[uint64]bool{10: false, 11: true},
		txsByStore: map[uint32][]da.BatchTransaction{
			12: {rawTx(5)},
		},
	}
	f := newFixture(t, reader, 10)

	if err := f.proc.Process(ctx, domain.BatchRange{Start: 10, End: 12}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	// Unconfirmed index 10 still advances the checkpoint but writes nothing.
	if got := f.checkpoint.Current(); got != 11 {
		t.Errorf("checkpoint = %d, want 11", got)
	}
	txs, err := f.txRepo.GetByBatchIndex(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("unconfirmed batch wrote %d txs, want 0", len(txs))
	}
	rs, err := f.storeRepo.GetRollupStoreByBatchIndex(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if rs != nil {
		t.Error("unconfirmed batch should not persist its rollup store entry")
	}

	txs, err = f.txRepo.GetByBatchIndex(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 {
		t.Errorf("confirmed batch wrote %d txs, want 1", len(txs))
	}
}

func TestProcessPropagatesFetchError(t *testing.T) {
	ctx := context.Background()
	fetchErr := errors.New("da unavailable")
	reader := &fakeDA{storeErr: fetchErr}
	f := newFixture(t, reader, 10)

	err := f.proc.Process(ctx, domain.BatchRange{Start: 10, End: 12})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Process error = %v, want %v", err, fetchErr)
	}
	if got := f.checkpoint.Current(); got != 10 {
		t.Errorf("checkpoint = %d after failed pass, want 10", got)
	}
}

func TestProcessIsIdempotentOnRerun(t *testing.T) {
	ctx := context.Background()
	reader := &fakeDA{
		producedUpTo: 20,
		txsByStore: map[uint32][]da.BatchTransaction{
			11: {rawTx(0)},
		},
	}
	f := newFixture(t, reader, 10)

	r := domain.BatchRange{Start: 10, End: 11}
	if err := f.proc.Process(ctx, r); err != nil {
		t.Fatal(err)
	}
	// A restart re-plans from the checkpoint and redoes the boundary index.
	if err := f.proc.Process(ctx, r); err != nil {
		t.Fatalf("re-run failed: %v", err)
	}

	txs, err := f.txRepo.GetByBatchIndex(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 1 {
		t.Errorf("batch 10 txs after re-run = %d, want 1", len(txs))
	}
	if got := f.checkpoint.Current(); got != 10 {
		t.Errorf("checkpoint = %d, want 10", got)
	}
}

func TestProcessEmptyStoreAdvances(t *testing.T) {
	ctx := context.Background()
	reader := &fakeDA{producedUpTo: 20}
	f := newFixture(t, reader, 10)

	if err := f.proc.Process(ctx, domain.BatchRange{Start: 10, End: 12}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if got := f.checkpoint.Current(); got != 11 {
		t.Errorf("checkpoint = %d, want 11", got)
	}
	// The store metadata is still recorded even with no transactions.
	ds, err := f.storeRepo.GetDataStoreByID(ctx, 11)
	if err != nil {
		t.Fatal(err)
	}
	if ds == nil {
		t.Error("data store 11 not persisted")
	}
}
