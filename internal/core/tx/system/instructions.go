package system

import (
	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Instruction tags, encoded as u32 little endian.
const (
	InstructionCreateAccount uint32 = 0
	InstructionAssign        uint32 = 1
	InstructionTransfer      uint32 = 2
	InstructionAllocate      uint32 = 8
)

// CreateAccount moves lamports from `from` into a new account of space
// zeroed bytes owned by owner. Both accounts must sign.
func CreateAccount(from, newAccount types.Pubkey, lamports, space uint64, owner types.Pubkey) tx.Instruction {
	data := binarycodec.NewBinarySerializer(52).
		WriteU32(InstructionCreateAccount).
		WriteU64(lamports).
		WriteU64(space).
		WriteBytes(owner[:]).
		GetSink()
	return tx.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []tx.AccountMeta{tx.WritableSigner(from), tx.WritableSigner(newAccount)},
		Data:      data,
	}
}

// Assign hands account to owner.
func Assign(account, owner types.Pubkey) tx.Instruction {
	data := binarycodec.NewBinarySerializer(36).
		WriteU32(InstructionAssign).
		WriteBytes(owner[:]).
		GetSink()
	return tx.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []tx.AccountMeta{tx.WritableSigner(account)},
		Data:      data,
	}
}

// Transfer moves lamports between system accounts. The destination is
// created if it does not exist.
func Transfer(from, to types.Pubkey, lamports uint64) tx.Instruction {
	data := binarycodec.NewBinarySerializer(12).
		WriteU32(InstructionTransfer).
		WriteU64(lamports).
		GetSink()
	return tx.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []tx.AccountMeta{tx.WritableSigner(from), tx.Writable(to)},
		Data:      data,
	}
}

// Allocate gives an empty system account space zeroed bytes.
func Allocate(account types.Pubkey, space uint64) tx.Instruction {
	data := binarycodec.NewBinarySerializer(12).
		WriteU32(InstructionAllocate).
		WriteU64(space).
		GetSink()
	return tx.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts:  []tx.AccountMeta{tx.WritableSigner(account)},
		Data:      data,
	}
}
