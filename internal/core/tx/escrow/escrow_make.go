package escrow

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// open creates the record, creates the vault and moves the deposit into it.
func open(ctx *tx.ApplyContext, d Decoded) tx.Result {
	maker, mintA, mintB := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	makerAtaA, escrowKey, vaultKey := ctx.Key(3), ctx.Key(4), ctx.Key(5)
	if r := requirePrograms(ctx, 6); r != tx.Success {
		return r
	}

	if d.Deposit == 0 || d.Receive == 0 {
		return ctx.Fail(tx.InvalidAmount, "deposit and receive must be positive",
			zap.Uint64("deposit", d.Deposit), zap.Uint64("receive", d.Receive))
	}

	esc, err := keylet.Escrow(maker, d.Seed)
	if r := requireAddress(ctx, "escrow record", escrowKey, esc, err); r != tx.Success {
		return r
	}
	vault, err := keylet.Vault(escrowKey, mintA)
	if r := requireAddress(ctx, "vault", vaultKey, vault, err); r != tx.Success {
		return r
	}
	ata, err := keylet.AssociatedToken(maker, mintA)
	if r := requireAddress(ctx, "maker holding account", makerAtaA, ata, err); r != tx.Success {
		return r
	}

	existing, r := ctx.Load(escrowKey)
	if r != tx.Success {
		return r
	}
	if existing != nil && existing.Owner == types.EscrowProgramID {
		return ctx.Fail(tx.RecordAlreadyExists, "escrow already open",
			zap.Stringer("maker", maker), zap.Uint64("seed", d.Seed))
	}

	for _, mint := range []types.Pubkey{mintA, mintB} {
		if r := requireMint(ctx, mint); r != tx.Success {
			return r
		}
	}
	balance, r := holdingBalance(ctx, makerAtaA)
	if r != tx.Success {
		return r
	}
	if balance < d.Deposit {
		return ctx.Fail(tx.InsufficientFunds, "maker balance below deposit",
			zap.Uint64("balance", balance), zap.Uint64("deposit", d.Deposit))
	}

	rec := &Record{
		Seed:    d.Seed,
		Maker:   maker,
		MintA:   mintA,
		MintB:   mintB,
		Deposit: d.Deposit,
		Receive: d.Receive,
		Bump:    esc.Bump,
	}
	proof, r := ctx.ProveAuthority(rec.Seeds()...)
	if r != tx.Success {
		return r
	}
	if r := system.CreateDerived(ctx, maker, escrowKey, RecordLen, types.EscrowProgramID, proof); r != tx.Success {
		return r
	}
	acc, r := ctx.Load(escrowKey)
	if r != tx.Success {
		return r
	}
	acc.Data = rec.Pack()
	if r := ctx.Store(escrowKey, acc); r != tx.Success {
		return r
	}

	if r := ctx.Invoke(associated.Create(maker, escrowKey, mintA)); r != tx.Success {
		return r
	}
	return ctx.Invoke(token.Transfer(makerAtaA, vaultKey, maker, d.Deposit))
}
