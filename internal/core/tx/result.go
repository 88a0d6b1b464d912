package tx

import (
	"errors"
	"fmt"
)

// Result is the outcome code of applying an instruction or transaction.
type Result int

// Result codes are grouped by range:
//
//	0            success
//	100..199     rejected by program logic
//	-99..-1      retryable
//	-199..-100   runtime failure
//	-299..-200   malformed input
const (
	Success Result = 0

	// Program outcomes (100-199)
	InvalidAmount        Result = 100
	InsufficientFunds    Result = 101
	RecordAlreadyExists  Result = 102
	RecordNotFound       Result = 103
	UnauthorizedSigner   Result = 104
	InvalidAccountData   Result = 105
	AccountOwnerMismatch Result = 106
	InvalidSeeds         Result = 107
	StakingPaused        Result = 108
	StakeLimitReached    Result = 109
	StakeLocked          Result = 110

	// Retry (-99 to -1)
	CommitConflict Result = -99

	// Runtime failures (-199 to -100)
	Internal           Result = -199
	UnbalancedLamports Result = -198
	CallDepthExceeded  Result = -197

	// Malformed (-299 to -200)
	MalformedInstruction Result = -299
	AccountRoleMismatch  Result = -298
	UnknownProgram       Result = -297
)

// Sentinel errors, one per non-success Result.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrRecordAlreadyExists  = errors.New("record already exists")
	ErrRecordNotFound       = errors.New("record not found")
	ErrUnauthorizedSigner   = errors.New("unauthorized signer")
	ErrInvalidAccountData   = errors.New("invalid account data")
	ErrAccountOwnerMismatch = errors.New("account owner mismatch")
	ErrInvalidSeeds         = errors.New("invalid seeds")
	ErrStakingPaused        = errors.New("staking paused")
	ErrStakeLimitReached    = errors.New("stake limit reached")
	ErrStakeLocked          = errors.New("minimum stake duration not met")
	ErrCommitConflict       = errors.New("commit conflict")
	ErrInternal             = errors.New("internal error")
	ErrUnbalancedLamports   = errors.New("unbalanced lamports")
	ErrCallDepthExceeded    = errors.New("call depth exceeded")
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrAccountRoleMismatch  = errors.New("account role mismatch")
	ErrUnknownProgram       = errors.New("unknown program")
)

var resultErrors = map[Result]error{
	InvalidAmount:        ErrInvalidAmount,
	InsufficientFunds:    ErrInsufficientFunds,
	RecordAlreadyExists:  ErrRecordAlreadyExists,
	RecordNotFound:       ErrRecordNotFound,
	UnauthorizedSigner:   ErrUnauthorizedSigner,
	InvalidAccountData:   ErrInvalidAccountData,
	AccountOwnerMismatch: ErrAccountOwnerMismatch,
	InvalidSeeds:         ErrInvalidSeeds,
	StakingPaused:        ErrStakingPaused,
	StakeLimitReached:    ErrStakeLimitReached,
	StakeLocked:          ErrStakeLocked,
	CommitConflict:       ErrCommitConflict,
	Internal:             ErrInternal,
	UnbalancedLamports:   ErrUnbalancedLamports,
	CallDepthExceeded:    ErrCallDepthExceeded,
	MalformedInstruction: ErrMalformedInstruction,
	AccountRoleMismatch:  ErrAccountRoleMismatch,
	UnknownProgram:       ErrUnknownProgram,
}

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case InvalidAmount:
		return "InvalidAmount"
	case InsufficientFunds:
		return "InsufficientFunds"
	case RecordAlreadyExists:
		return "RecordAlreadyExists"
	case RecordNotFound:
		return "RecordNotFound"
	case UnauthorizedSigner:
		return "UnauthorizedSigner"
	case InvalidAccountData:
		return "InvalidAccountData"
	case AccountOwnerMismatch:
		return "AccountOwnerMismatch"
	case InvalidSeeds:
		return "InvalidSeeds"
	case StakingPaused:
		return "StakingPaused"
	case StakeLimitReached:
		return "StakeLimitReached"
	case StakeLocked:
		return "StakeLocked"
	case CommitConflict:
		return "CommitConflict"
	case Internal:
		return "Internal"
	case UnbalancedLamports:
		return "UnbalancedLamports"
	case CallDepthExceeded:
		return "CallDepthExceeded"
	case MalformedInstruction:
		return "MalformedInstruction"
	case AccountRoleMismatch:
		return "AccountRoleMismatch"
	case UnknownProgram:
		return "UnknownProgram"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// ResultFromName parses a String() form.
func ResultFromName(name string) (Result, bool) {
	if name == Success.String() {
		return Success, true
	}
	for r := range resultErrors {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == Success
}

// IsProgramError reports a rejection by program logic.
func (r Result) IsProgramError() bool {
	return r >= 100 && r < 200
}

// IsRetry reports a result worth resubmitting unchanged.
func (r Result) IsRetry() bool {
	return r >= -99 && r <= -1
}

// IsRuntimeFailure reports a failure inside the runtime itself.
func (r Result) IsRuntimeFailure() bool {
	return r >= -199 && r <= -100
}

// IsMalformed reports an instruction rejected before any program logic ran.
func (r Result) IsMalformed() bool {
	return r >= -299 && r <= -200
}

// Err returns the sentinel error for r, or nil on success.
func (r Result) Err() error {
	if r == Success {
		return nil
	}
	if err, ok := resultErrors[r]; ok {
		return err
	}
	return fmt.Errorf("%w: %s", ErrInternal, r)
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case Success:
		return "The transaction was applied."
	case InvalidAmount:
		return "Amounts must be positive and must not overflow."
	case InsufficientFunds:
		return "Source balance is too low."
	case RecordAlreadyExists:
		return "An account already exists at the derived address."
	case RecordNotFound:
		return "No account exists at the derived address."
	case UnauthorizedSigner:
		return "The signer is not allowed to perform this operation."
	case StakeLocked:
		return "The stake has not reached its minimum duration."
	case CommitConflict:
		return "State kept changing underneath the transaction."
	case MalformedInstruction:
		return "The instruction data could not be decoded."
	case AccountRoleMismatch:
		return "The account list does not match the instruction schema."
	default:
		return r.String()
	}
}
