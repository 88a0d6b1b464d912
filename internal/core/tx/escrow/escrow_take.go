package escrow

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
)

// settle pays the maker, releases the vault to the taker and closes the
// escrow. The maker does not sign.
func settle(ctx *tx.ApplyContext) tx.Result {
	taker, maker, mintA, mintB := ctx.Key(0), ctx.Key(1), ctx.Key(2), ctx.Key(3)
	makerAtaB, takerAtaA, takerAtaB := ctx.Key(4), ctx.Key(5), ctx.Key(6)
	escrowKey, vaultKey := ctx.Key(7), ctx.Key(8)
	if r := requirePrograms(ctx, 9); r != tx.Success {
		return r
	}

	_, rec, r := loadRecord(ctx, escrowKey)
	if r != tx.Success {
		return r
	}
	if rec.Maker != maker || rec.MintA != mintA || rec.MintB != mintB {
		return ctx.Fail(tx.AccountRoleMismatch, "accounts do not match the record", zap.Stringer("escrow", escrowKey))
	}

	esc, err := keylet.Escrow(rec.Maker, rec.Seed)
	if r := requireAddress(ctx, "escrow record", escrowKey, esc, err); r != tx.Success {
		return r
	}
	vault, err := keylet.Vault(escrowKey, mintA)
	if r := requireAddress(ctx, "vault", vaultKey, vault, err); r != tx.Success {
		return r
	}
	k, err := keylet.AssociatedToken(maker, mintB)
	if r := requireAddress(ctx, "maker holding account", makerAtaB, k, err); r != tx.Success {
		return r
	}
	k, err = keylet.AssociatedToken(taker, mintA)
	if r := requireAddress(ctx, "taker receiving account", takerAtaA, k, err); r != tx.Success {
		return r
	}
	k, err = keylet.AssociatedToken(taker, mintB)
	if r := requireAddress(ctx, "taker paying account", takerAtaB, k, err); r != tx.Success {
		return r
	}

	balance, r := holdingBalance(ctx, takerAtaB)
	if r != tx.Success {
		return r
	}
	if balance < rec.Receive {
		return ctx.Fail(tx.InsufficientFunds, "taker balance below receive",
			zap.Uint64("balance", balance), zap.Uint64("receive", rec.Receive))
	}

	if r := createIdempotent(ctx, taker, taker, mintA); r != tx.Success {
		return r
	}
	if r := createIdempotent(ctx, taker, maker, mintB); r != tx.Success {
		return r
	}
	if r := ctx.Invoke(token.Transfer(takerAtaB, makerAtaB, taker, rec.Receive)); r != tx.Success {
		return r
	}
	return drainAndClose(ctx, rec, escrowKey, vaultKey, takerAtaA, maker)
}
