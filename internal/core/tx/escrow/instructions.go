package escrow

import (
	"errors"
	"fmt"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Operation identifies an escrow instruction.
type Operation uint8

const (
	OpOpen Operation = iota + 1
	OpSettle
	OpRefund
)

func (o Operation) String() string {
	switch o {
	case OpOpen:
		return "make"
	case OpSettle:
		return "take"
	case OpRefund:
		return "refund"
	default:
		return "unknown"
	}
}

// Instruction discriminators.
var (
	MakeDiscriminator   = crypto.Discriminator("global", "make")
	TakeDiscriminator   = crypto.Discriminator("global", "take")
	RefundDiscriminator = crypto.Discriminator("global", "refund")
)

// makePayloadLen is seed, deposit and receive.
const makePayloadLen = 24

var (
	ErrUnknownDiscriminator = errors.New("escrow: unknown instruction discriminator")
	ErrPayloadLength        = errors.New("escrow: payload length mismatch")
)

// Decoded is a decoded escrow instruction. Seed, Deposit and Receive are
// set for OpOpen only.
type Decoded struct {
	Op      Operation
	Seed    uint64
	Deposit uint64
	Receive uint64
}

// Decode parses instruction data. It performs no business validation.
func Decode(data []byte) (Decoded, error) {
	p := binarycodec.NewBinaryParser(data)
	disc, err := p.ReadDiscriminator()
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrPayloadLength, err)
	}

	var d Decoded
	switch disc {
	case MakeDiscriminator:
		d.Op = OpOpen
		if p.Remaining() != makePayloadLen {
			return Decoded{}, fmt.Errorf("%w: make carries %d bytes", ErrPayloadLength, p.Remaining())
		}
		for _, dst := range []*uint64{&d.Seed, &d.Deposit, &d.Receive} {
			if *dst, err = p.ReadU64(); err != nil {
				return Decoded{}, fmt.Errorf("%w: %v", ErrPayloadLength, err)
			}
		}
	case TakeDiscriminator:
		d.Op = OpSettle
	case RefundDiscriminator:
		d.Op = OpRefund
	default:
		return Decoded{}, fmt.Errorf("%w: %x", ErrUnknownDiscriminator, disc)
	}
	if p.HasMore() {
		return Decoded{}, fmt.Errorf("%w: %s carries %d trailing bytes", ErrPayloadLength, d.Op, p.Remaining())
	}
	return d, nil
}

// schemas lists the account roles of each operation, in order.
var schemas = map[Operation][]tx.AccountRole{
	OpOpen: {
		tx.RoleWritableSigner, // maker
		tx.RoleReadonly,       // mint_a
		tx.RoleReadonly,       // mint_b
		tx.RoleWritable,       // maker_ata_a
		tx.RoleWritable,       // escrow
		tx.RoleWritable,       // vault
		tx.RoleReadonly,       // associated_token_program
		tx.RoleReadonly,       // token_program
		tx.RoleReadonly,       // system_program
	},
	OpSettle: {
		tx.RoleWritableSigner, // taker
		tx.RoleWritable,       // maker
		tx.RoleReadonly,       // mint_a
		tx.RoleReadonly,       // mint_b
		tx.RoleWritable,       // maker_ata_b
		tx.RoleWritable,       // taker_ata_a
		tx.RoleWritable,       // taker_ata_b
		tx.RoleWritable,       // escrow
		tx.RoleWritable,       // vault
		tx.RoleReadonly,       // associated_token_program
		tx.RoleReadonly,       // token_program
		tx.RoleReadonly,       // system_program
	},
	OpRefund: {
		tx.RoleWritableSigner, // maker
		tx.RoleReadonly,       // mint_a
		tx.RoleWritable,       // maker_ata_a
		tx.RoleWritable,       // escrow
		tx.RoleWritable,       // vault
		tx.RoleReadonly,       // associated_token_program
		tx.RoleReadonly,       // token_program
		tx.RoleReadonly,       // system_program
	},
}

// Schema returns the account roles op expects.
func Schema(op Operation) []tx.AccountRole {
	return schemas[op]
}

func metas(keys []types.Pubkey, roles []tx.AccountRole) []tx.AccountMeta {
	out := make([]tx.AccountMeta, len(keys))
	for i, k := range keys {
		out[i] = tx.AccountMeta{Pubkey: k, IsSigner: roles[i].Signer, IsWritable: roles[i].Writable}
	}
	return out
}

func mustAddress(k keylet.Keylet, err error) types.Pubkey {
	if err != nil {
		panic(err)
	}
	return k.Address
}

// Make opens escrow seed of maker, locking deposit units of mintA in
// exchange for receive units of mintB.
func Make(maker, mintA, mintB types.Pubkey, seed, deposit, receive uint64) tx.Instruction {
	escrow := mustAddress(keylet.Escrow(maker, seed))
	keys := []types.Pubkey{
		maker,
		mintA,
		mintB,
		mustAddress(keylet.AssociatedToken(maker, mintA)),
		escrow,
		mustAddress(keylet.Vault(escrow, mintA)),
		types.AssociatedTokenProgramID,
		types.TokenProgramID,
		types.SystemProgramID,
	}
	data := binarycodec.NewBinarySerializer(8+makePayloadLen).
		WriteDiscriminator(MakeDiscriminator).
		WriteU64(seed).
		WriteU64(deposit).
		WriteU64(receive).
		GetSink()
	return tx.Instruction{ProgramID: types.EscrowProgramID, Accounts: metas(keys, schemas[OpOpen]), Data: data}
}

// Take settles escrow seed of maker for taker.
func Take(taker, maker, mintA, mintB types.Pubkey, seed uint64) tx.Instruction {
	escrow := mustAddress(keylet.Escrow(maker, seed))
	keys := []types.Pubkey{
		taker,
		maker,
		mintA,
		mintB,
		mustAddress(keylet.AssociatedToken(maker, mintB)),
		mustAddress(keylet.AssociatedToken(taker, mintA)),
		mustAddress(keylet.AssociatedToken(taker, mintB)),
		escrow,
		mustAddress(keylet.Vault(escrow, mintA)),
		types.AssociatedTokenProgramID,
		types.TokenProgramID,
		types.SystemProgramID,
	}
	return tx.Instruction{
		ProgramID: types.EscrowProgramID,
		Accounts:  metas(keys, schemas[OpSettle]),
		Data:      append([]byte(nil), TakeDiscriminator[:]...),
	}
}

// Refund cancels escrow seed of maker and returns the deposit.
func Refund(maker, mintA types.Pubkey, seed uint64) tx.Instruction {
	escrow := mustAddress(keylet.Escrow(maker, seed))
	keys := []types.Pubkey{
		maker,
		mintA,
		mustAddress(keylet.AssociatedToken(maker, mintA)),
		escrow,
		mustAddress(keylet.Vault(escrow, mintA)),
		types.AssociatedTokenProgramID,
		types.TokenProgramID,
		types.SystemProgramID,
	}
	return tx.Instruction{
		ProgramID: types.EscrowProgramID,
		Accounts:  metas(keys, schemas[OpRefund]),
		Data:      append([]byte(nil), RefundDiscriminator[:]...),
	}
}
