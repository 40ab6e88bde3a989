package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"missing element", MissingElement("rollup store 42"), KindMissingElement},
		{"wrapped missing element", fmt.Errorf("sync batch 42: %w", MissingElement("enqueue 7")), KindMissingElement},
		{"transport", Transport("getDataStoreById", errors.New("timeout")), KindTransport},
		{"plain error", errors.New("disk full"), KindFatal},
		{"nil-adjacent wrap", fmt.Errorf("outer: %w", errors.New("inner")), KindFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	me := MissingElement("batch 5")
	if !IsMissingElement(me) {
		t.Error("IsMissingElement should match its own constructor")
	}
	if IsTransport(me) {
		t.Error("missing element is not a transport failure")
	}

	tr := Transport("getLatestTransactionBatchIndex", errors.New("refused"))
	if !IsTransport(tr) {
		t.Error("IsTransport should match its own constructor")
	}
	if IsMissingElement(tr) {
		t.Error("transport failure is not a missing element")
	}
}

func TestTransportKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transport("getBatchTransactionByDataStoreId", cause)
	if !errors.Is(err, cause) {
		t.Error("transport error should wrap its cause")
	}
}
