package token

import (
	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Instruction tags, one byte.
const (
	InstructionTransfer           uint8 = 3
	InstructionApprove            uint8 = 4
	InstructionRevoke             uint8 = 5
	InstructionMintTo             uint8 = 7
	InstructionBurn               uint8 = 8
	InstructionCloseAccount       uint8 = 9
	InstructionInitializeAccount3 uint8 = 18
	InstructionInitializeMint2    uint8 = 20
)

func amountData(tag uint8, amount uint64) []byte {
	return binarycodec.NewBinarySerializer(9).WriteU8(tag).WriteU64(amount).GetSink()
}

// InitializeMint2 initializes an allocated mint account. A nil freeze
// authority leaves the mint unfreezable.
func InitializeMint2(mint types.Pubkey, decimals uint8, authority types.Pubkey, freeze *types.Pubkey) tx.Instruction {
	s := binarycodec.NewBinarySerializer(67).
		WriteU8(InstructionInitializeMint2).
		WriteU8(decimals).
		WriteBytes(authority[:])
	if freeze != nil {
		s.WriteU8(1).WriteBytes(freeze[:])
	} else {
		s.WriteU8(0)
	}
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts:  []tx.AccountMeta{tx.Writable(mint)},
		Data:      s.GetSink(),
	}
}

// InitializeAccount3 initializes an allocated holding account for owner.
func InitializeAccount3(account, mint, owner types.Pubkey) tx.Instruction {
	data := binarycodec.NewBinarySerializer(33).
		WriteU8(InstructionInitializeAccount3).
		WriteBytes(owner[:]).
		GetSink()
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts:  []tx.AccountMeta{tx.Writable(account), tx.Readonly(mint)},
		Data:      data,
	}
}

// MintTo issues amount new units into dest.
func MintTo(mint, dest, authority types.Pubkey, amount uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(mint),
			tx.Writable(dest),
			{Pubkey: authority, IsSigner: true},
		},
		Data: amountData(InstructionMintTo, amount),
	}
}

// Transfer moves amount units from source to dest. authority is the source
// owner or its delegate.
func Transfer(source, dest, authority types.Pubkey, amount uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(source),
			tx.Writable(dest),
			{Pubkey: authority, IsSigner: true},
		},
		Data: amountData(InstructionTransfer, amount),
	}
}

// Approve lets delegate move up to amount units out of source.
func Approve(source, delegate, owner types.Pubkey, amount uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(source),
			tx.Readonly(delegate),
			{Pubkey: owner, IsSigner: true},
		},
		Data: amountData(InstructionApprove, amount),
	}
}

// Revoke clears the delegate of source.
func Revoke(source, owner types.Pubkey) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(source),
			{Pubkey: owner, IsSigner: true},
		},
		Data: []byte{InstructionRevoke},
	}
}

// Burn destroys amount units held in account.
func Burn(account, mint, authority types.Pubkey, amount uint64) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(account),
			tx.Writable(mint),
			{Pubkey: authority, IsSigner: true},
		},
		Data: amountData(InstructionBurn, amount),
	}
}

// CloseAccount closes an empty holding account and sends its lamports to
// dest.
func CloseAccount(account, dest, authority types.Pubkey) tx.Instruction {
	return tx.Instruction{
		ProgramID: types.TokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.Writable(account),
			tx.Writable(dest),
			{Pubkey: authority, IsSigner: true},
		},
		Data: []byte{InstructionCloseAccount},
	}
}
