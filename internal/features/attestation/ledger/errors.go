package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"swagly-backend/internal/features/attestation/canonical"
	"swagly-backend/internal/features/attestation/models"
)

var (
	ErrReverted     = errors.New("ledger: transaction reverted")
	ErrMissingEvent = errors.New("ledger: AttestationCreated event not found in receipt")
)

// LedgerWriteError reports a write that was not confirmed. TxHash is set when
// the transaction was submitted; it may still land on-chain later.
type LedgerWriteError struct {
	Op     string
	TxHash common.Hash
	Err    error
}

func (e *LedgerWriteError) Error() string {
	if e.TxHash != (common.Hash{}) {
		return fmt.Sprintf("ledger write %s (tx %s): %v", e.Op, e.TxHash.Hex(), e.Err)
	}
	return fmt.Sprintf("ledger write %s: %v", e.Op, e.Err)
}

func (e *LedgerWriteError) Unwrap() error { return e.Err }

// LedgerReadError means the answer is unknown, not false.
type LedgerReadError struct {
	Op  string
	Err error
}

func (e *LedgerReadError) Error() string {
	return fmt.Sprintf("ledger read %s: %v", e.Op, e.Err)
}

func (e *LedgerReadError) Unwrap() error { return e.Err }

// DecodeError is returned when an attestation exists but has another kind.
type DecodeError struct {
	UID  canonical.Key
	Want models.Kind
	Got  models.Kind
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("attestation %s is %s, not %s", e.UID.Hex(), e.Got, e.Want)
}
