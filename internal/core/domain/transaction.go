package domain

// QueueOrigin classifies where a rollup transaction entered the system.
type QueueOrigin string

const (
	// QueueOriginL1 marks transactions enqueued on the base layer.
	QueueOriginL1 QueueOrigin = "l1"
	// QueueOriginSequencer marks transactions submitted by the sequencer.
	QueueOriginSequencer QueueOrigin = "sequencer"
)

// Signature holds the normalized signature of a sequencer transaction.
// R and S are 0x-prefixed hex strings padded to 64 hex characters.
// V is the chain-id-normalized recovery id.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint64 `json:"v"`
}

// DecodedTransaction is the decoded sub-record of a sequencer-origin
// transaction. Numeric fields are decimal-string integers.
type DecodedTransaction struct {
	Nonce     string    `json:"nonce"`
	GasPrice  string    `json:"gasPrice"`
	GasLimit  string    `json:"gasLimit"`
	Value     string    `json:"value"`
	Target    *string   `json:"target"`
	Data      string    `json:"data"`
	Signature Signature `json:"sig"`
}

// TransactionEntry is the canonical decoded form of one rollup batch
// transaction. Decoded is non-nil if and only if the transaction is
// sequencer-origin; L1-enqueued transactions are not independently signed
// at this layer.
type TransactionEntry struct {
	Index       uint64              `json:"index"`
	BatchIndex  uint64              `json:"batch_index"`
	BlockNumber uint64              `json:"block_number"`
	Timestamp   uint64              `json:"timestamp"`
	GasLimit    string              `json:"gas_limit"`
	Target      string              `json:"target"`
	Origin      *string             `json:"origin"`
	Data        string              `json:"data"`
	QueueOrigin QueueOrigin         `json:"queue_origin"`
	Value       string              `json:"value"`
	QueueIndex  *uint64             `json:"queue_index"`
	Decoded     *DecodedTransaction `json:"decoded"`
	Confirmed   bool                `json:"confirmed"`
}

// TransactionListEntry maps a data store's local transaction ordinal to its
// block number and hash. The set for a store is rebuilt wholesale on every
// confirmed sync, so entries carry no cross-store identity.
type TransactionListEntry struct {
	Index       uint64 `json:"index"        db:"tx_index"`
	BlockNumber uint64 `json:"BlockNumber"  db:"block_number"`
	TxHash      string `json:"TxHash"       db:"tx_hash"`
}

// EnqueueEntry is a previously ingested L1 enqueue record. The enqueue is
// authoritative for gas limit, target and origin of queue-indexed
// transactions.
type EnqueueEntry struct {
	QueueIndex uint64 `json:"queue_index" db:"queue_index"`
	GasLimit   string `json:"gas_limit"   db:"gas_limit"`
	Target     string `json:"target"      db:"target"`
	Origin     string `json:"origin"      db:"origin"`
}
