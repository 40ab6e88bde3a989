// Package decoder turns raw DA-layer batch transactions into canonical
// transaction records. It performs no I/O of its own; the enqueue lookup is
// injected so the processor can back it with the persisted store.
package decoder

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vietddude/dasync/internal/core/domain"
	"github.com/vietddude/dasync/internal/infra/da"
)

// EnqueueLookup resolves a queue index against the persisted enqueue store.
// Returns (nil, nil) when no record exists.
type EnqueueLookup func(ctx context.Context, queueIndex uint64) (*domain.EnqueueEntry, error)

// queueOriginL1 is the numeric tag marking a base-layer enqueue. Anything
// else is a sequencer submission.
const queueOriginL1 = 1

// Params carries the decode context shared by all transactions of a batch.
type Params struct {
	BatchIndex uint64
	// L2ChainID drives EIP-155 recovery-id normalization.
	L2ChainID uint64
}

// Decode transforms one raw batch transaction into its canonical record.
// Records reaching this stage always belong to a confirmed data store.
func Decode(ctx context.Context, raw da.BatchTransaction, params Params, lookup EnqueueLookup) (*domain.TransactionEntry, error) {
	payload, err := base64.StdEncoding.DecodeString(raw.TxMeta.RawTransaction)
	if err != nil {
		return nil, fmt.Errorf("decode raw transaction %d: %w", raw.TxMeta.Index, err)
	}

	queueOrigin := domain.QueueOriginSequencer
	if raw.TxMeta.QueueOrigin == queueOriginL1 {
		queueOrigin = domain.QueueOriginL1
	}

	// Wire values arrive as decimal or 0x-hex; both the entry and its
	// decoded sub-record carry the decimal-string form.
	value, err := decimalString(raw.TxDetail.Value)
	if err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}

	entry := &domain.TransactionEntry{
		Index:       raw.TxMeta.Index,
		BatchIndex:  params.BatchIndex,
		BlockNumber: raw.TxMeta.L1BlockNumber,
		Timestamp:   raw.TxMeta.L1Timestamp,
		GasLimit:    "0",
		Target:      common.Address{}.Hex(),
		Origin:      nil,
		Data:        hexutil.Encode(payload),
		QueueOrigin: queueOrigin,
		Value:       value,
		QueueIndex:  raw.TxMeta.QueueIndex,
		Confirmed:   true,
	}

	// The L1 enqueue is authoritative for gas limit, target and origin of
	// queue-indexed transactions. An absent record keeps the defaults.
	if raw.TxMeta.QueueIndex != nil {
		enqueue, err := lookup(ctx, *raw.TxMeta.QueueIndex)
		if err != nil {
			return nil, fmt.Errorf("lookup enqueue %d: %w", *raw.TxMeta.QueueIndex, err)
		}
		if enqueue != nil {
			entry.GasLimit = enqueue.GasLimit
			entry.Target = enqueue.Target
			origin := enqueue.Origin
			entry.Origin = &origin
		}
	}

	if queueOrigin == domain.QueueOriginSequencer {
		decoded, err := decodeSequencerTx(raw.TxDetail, params.L2ChainID)
		if err != nil {
			return nil, err
		}
		entry.Decoded = decoded
	}

	return entry, nil
}

func decodeSequencerTx(detail da.TxDetail, chainID uint64) (*domain.DecodedTransaction, error) {
	gasPrice, err := decimalString(detail.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("parse gas price: %w", err)
	}
	value, err := decimalString(detail.Value)
	if err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}

	var target *string
	if detail.To != nil && *detail.To != "" {
		t := normalizeHex(*detail.To)
		target = &t
	}

	return &domain.DecodedTransaction{
		Nonce:    strconv.FormatUint(detail.Nonce, 10),
		GasPrice: gasPrice,
		GasLimit: strconv.FormatUint(detail.Gas, 10),
		Value:    value,
		Target:   target,
		Data:     normalizeHex(detail.Input),
		Signature: domain.Signature{
			R: PadSignatureComponent(detail.R),
			S: PadSignatureComponent(detail.S),
			V: NormalizeV(detail.V, chainID),
		},
	}, nil
}

// PadSignatureComponent left-pads a signature component to 64 hex characters.
// The padding deliberately operates on the string representation, not the
// decoded byte value; downstream consumers depend on this exact shape.
func PadSignatureComponent(s string) string {
	s = strings.TrimPrefix(s, "0x")
	if len(s) < 64 {
		s = strings.Repeat("0", 64-len(s)) + s
	}
	return "0x" + s
}

// NormalizeV maps a raw signature v onto the canonical recovery id using the
// EIP-155 convention for the given chain id. Legacy 27/28 values and
// already-normalized 0/1 values pass through unchanged.
func NormalizeV(v, chainID uint64) uint64 {
	eip155Offset := 2*chainID + 35
	switch {
	case v >= eip155Offset:
		return v - eip155Offset
	case v == 27 || v == 28:
		return v - 27
	default:
		return v
	}
}

// decimalString normalizes a numeric wire field (decimal or 0x-hex) to a
// decimal-string integer. Empty input means zero.
func decimalString(s string) (string, error) {
	if s == "" {
		return "0", nil
	}
	n := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := n.SetString(s[2:], 16); !ok {
			return "", fmt.Errorf("invalid hex integer %q", s)
		}
	} else {
		if _, ok := n.SetString(s, 10); !ok {
			return "", fmt.Errorf("invalid decimal integer %q", s)
		}
	}
	return n.String(), nil
}

// normalizeHex ensures a 0x prefix on hex payload fields.
func normalizeHex(s string) string {
	if s == "" {
		return "0x"
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return "0x" + s[2:]
	}
	return "0x" + s
}
