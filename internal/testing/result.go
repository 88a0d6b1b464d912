package testing

import "github.com/LeJamon/goEscrowd/internal/core/tx"

// TxResult represents the result of applying a transaction.
type TxResult struct {
	// Code is the result name (e.g., "Success", "InsufficientFunds").
	Code string

	// Result is the engine result code.
	Result tx.Result

	// Success indicates whether the transaction was committed.
	Success bool

	// Message provides additional details about the result.
	Message string

	// Attempts is how many times the engine evaluated the transaction.
	Attempts int

	// Metadata lists the accounts a committed transaction changed.
	Metadata *tx.Metadata
}

func newTxResult(r tx.ApplyResult) TxResult {
	return TxResult{
		Code:     r.Result.String(),
		Result:   r.Result,
		Success:  r.Applied && r.Result.IsSuccess(),
		Message:  r.Message,
		Attempts: r.Attempts,
		Metadata: r.Metadata,
	}
}

// IsRetry reports whether the transaction lost every commit race.
func (r TxResult) IsRetry() bool {
	return r.Result.IsRetry()
}
