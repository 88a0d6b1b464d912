// Package escrow provides builders and fixtures for escrow program tests.
package escrow

import (
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	escrowtx "github.com/LeJamon/goEscrowd/internal/core/tx/escrow"
	"github.com/LeJamon/goEscrowd/internal/testing"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// MakeBuilder provides a fluent interface for building make instructions.
type MakeBuilder struct {
	maker   *testing.Account
	mintA   *testing.Account
	mintB   *testing.Account
	seed    uint64
	deposit uint64
	receive uint64
}

// Make creates a new MakeBuilder offering mintA for mintB. Seed defaults to 1.
func Make(maker, mintA, mintB *testing.Account) *MakeBuilder {
	return &MakeBuilder{maker: maker, mintA: mintA, mintB: mintB, seed: 1}
}

// Seed sets the maker-chosen escrow seed.
func (b *MakeBuilder) Seed(seed uint64) *MakeBuilder {
	b.seed = seed
	return b
}

// Deposit sets the amount of mintA locked in the vault.
func (b *MakeBuilder) Deposit(amount uint64) *MakeBuilder {
	b.deposit = amount
	return b
}

// Receive sets the amount of mintB the maker asks for.
func (b *MakeBuilder) Receive(amount uint64) *MakeBuilder {
	b.receive = amount
	return b
}

// Build returns the instruction.
func (b *MakeBuilder) Build() tx.Instruction {
	return escrowtx.Make(b.maker.Pubkey, b.mintA.Pubkey, b.mintB.Pubkey, b.seed, b.deposit, b.receive)
}

// Signers returns the accounts that must sign.
func (b *MakeBuilder) Signers() []*testing.Account {
	return []*testing.Account{b.maker}
}

// TakeBuilder provides a fluent interface for building take instructions.
type TakeBuilder struct {
	taker *testing.Account
	maker *testing.Account
	mintA *testing.Account
	mintB *testing.Account
	seed  uint64
}

// Take creates a new TakeBuilder settling maker's escrow. Seed defaults to 1.
func Take(taker, maker, mintA, mintB *testing.Account) *TakeBuilder {
	return &TakeBuilder{taker: taker, maker: maker, mintA: mintA, mintB: mintB, seed: 1}
}

// Seed sets the escrow seed.
func (b *TakeBuilder) Seed(seed uint64) *TakeBuilder {
	b.seed = seed
	return b
}

// Build returns the instruction.
func (b *TakeBuilder) Build() tx.Instruction {
	return escrowtx.Take(b.taker.Pubkey, b.maker.Pubkey, b.mintA.Pubkey, b.mintB.Pubkey, b.seed)
}

// Signers returns the accounts that must sign.
func (b *TakeBuilder) Signers() []*testing.Account {
	return []*testing.Account{b.taker}
}

// RefundBuilder provides a fluent interface for building refund instructions.
type RefundBuilder struct {
	maker  *testing.Account
	signer *testing.Account
	mintA  *testing.Account
	seed   uint64
}

// Refund creates a new RefundBuilder. Seed defaults to 1.
func Refund(maker, mintA *testing.Account) *RefundBuilder {
	return &RefundBuilder{maker: maker, signer: maker, mintA: mintA, seed: 1}
}

// Seed sets the escrow seed.
func (b *RefundBuilder) Seed(seed uint64) *RefundBuilder {
	b.seed = seed
	return b
}

// SignedBy replaces the signer while keeping the maker's escrow and vault
// accounts. The signer's own token account takes the maker's slot.
func (b *RefundBuilder) SignedBy(signer *testing.Account) *RefundBuilder {
	b.signer = signer
	return b
}

// Build returns the instruction.
func (b *RefundBuilder) Build() tx.Instruction {
	ix := escrowtx.Refund(b.maker.Pubkey, b.mintA.Pubkey, b.seed)
	if b.signer != b.maker {
		ix.Accounts[0].Pubkey = b.signer.Pubkey
		ix.Accounts[2].Pubkey = mustAddress(keylet.AssociatedToken(b.signer.Pubkey, b.mintA.Pubkey))
	}
	return ix
}

// Signers returns the accounts that must sign.
func (b *RefundBuilder) Signers() []*testing.Account {
	return []*testing.Account{b.signer}
}

// Address returns the escrow record address of maker and seed.
func Address(maker *testing.Account, seed uint64) types.Pubkey {
	return mustAddress(keylet.Escrow(maker.Pubkey, seed))
}

// VaultAddress returns the custody vault of maker's escrow seed.
func VaultAddress(maker, mintA *testing.Account, seed uint64) types.Pubkey {
	return mustAddress(keylet.Vault(Address(maker, seed), mintA.Pubkey))
}

func mustAddress(k keylet.Keylet, err error) types.Pubkey {
	if err != nil {
		panic(err)
	}
	return k.Address
}
