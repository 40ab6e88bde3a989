package domain

// BatchRange is a half-open window [Start, End) of rollup batch indices
// scheduled for one sync pass.
type BatchRange struct {
	Start uint64
	End   uint64
}

// Empty reports whether the range contains no work.
func (r BatchRange) Empty() bool {
	return r.Start >= r.End
}

// Width returns the number of batch indices in the range.
func (r BatchRange) Width() uint64 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// RollupStoreEntry maps a rollup batch index to the DA layer's internal
// data store and its confirmation status. A DataStoreID of 0 means the
// DA layer has not produced a store for that index yet.
type RollupStoreEntry struct {
	BatchIndex  uint64 `json:"index"         db:"batch_index"`
	DataStoreID uint32 `json:"data_store_id" db:"data_store_id"`
	Status      uint32 `json:"status"        db:"status"`
	ConfirmAt   uint64 `json:"confirm_at"    db:"confirm_at"`
}

// DataStoreEntry is the full metadata record for one data store published
// to the DA layer. It is immutable once fetched and persisted verbatim
// keyed by StoreID.
type DataStoreEntry struct {
	StoreID             uint32 `json:"store_id"`
	StoreNumber         uint32 `json:"store_number"`
	DurationDataStoreID uint32 `json:"duration_data_store_id"`
	Index               uint32 `json:"index"`

	DataCommitment string `json:"data_commitment"`
	MsgHash        string `json:"msg_hash"`

	InitTime          uint64 `json:"init_time"`
	ExpireTime        uint64 `json:"expire_time"`
	Duration          uint32 `json:"duration"`
	NumSys            uint32 `json:"num_sys"`
	NumPar            uint32 `json:"num_par"`
	Degree            uint32 `json:"degree"`
	StorePeriodLength uint64 `json:"store_period_length"`
	Fee               string `json:"fee"`

	Confirmer       string `json:"confirmer"`
	Header          string `json:"header"`
	SignatoryRecord string `json:"signatory_record"`
	EthSigned       string `json:"eth_signed"`
	EigenSigned     string `json:"eigen_signed"`

	Confirmed bool `json:"confirmed"`

	InitTxHash      string `json:"init_tx_hash"`
	InitGasUsed     uint64 `json:"init_gas_used"`
	InitBlockNumber uint64 `json:"init_block_number"`
	ConfirmTxHash   string `json:"confirm_tx_hash"`
	ConfirmGasUsed  uint64 `json:"confirm_gas_used"`
}
