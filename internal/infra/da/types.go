package da

// Wire shapes for the batch-transaction endpoint, the one response the
// decoder reinterprets field by field. The other endpoints unmarshal onto
// the domain types directly; their records are stored as received and the
// domain structs carry the wire's JSON tags.

// BatchTransaction is one raw transaction of a data store as served by the
// DA layer.
type BatchTransaction struct {
	TxMeta   TxMeta   `json:"TxMeta"`
	TxDetail TxDetail `json:"TxDetail"`
}

// TxMeta carries the rollup metadata of a batch transaction. RawTransaction
// is base64-encoded; QueueOrigin is a numeric tag (1 = enqueued on L1,
// anything else = sequencer).
type TxMeta struct {
	Index          uint64  `json:"index"`
	L1BlockNumber  uint64  `json:"l1BlockNumber"`
	L1Timestamp    uint64  `json:"l1Timestamp"`
	QueueOrigin    int64   `json:"queueOrigin"`
	QueueIndex     *uint64 `json:"queueIndex"`
	RawTransaction string  `json:"rawTransaction"`
}

// TxDetail carries the signed transaction fields of a batch transaction.
// Numeric fields may arrive as decimal or 0x-hex strings.
type TxDetail struct {
	Nonce    uint64  `json:"nonce"`
	GasPrice string  `json:"gasPrice"`
	Gas      uint64  `json:"gas"`
	To       *string `json:"to"`
	Value    string  `json:"value"`
	Input    string  `json:"input"`
	V        uint64  `json:"v"`
	R        string  `json:"r"`
	S        string  `json:"s"`
	Hash     string  `json:"hash"`
}
