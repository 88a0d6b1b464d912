package escrow

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
)

// refund returns the vault balance to the maker and closes the escrow.
func refund(ctx *tx.ApplyContext) tx.Result {
	maker, mintA, makerAtaA := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	escrowKey, vaultKey := ctx.Key(3), ctx.Key(4)
	if r := requirePrograms(ctx, 5); r != tx.Success {
		return r
	}

	_, rec, r := loadRecord(ctx, escrowKey)
	if r != tx.Success {
		return r
	}
	if rec.Maker != maker {
		return ctx.Fail(tx.UnauthorizedSigner, "only the maker refunds",
			zap.Stringer("signer", maker), zap.Stringer("maker", rec.Maker))
	}
	if rec.MintA != mintA {
		return ctx.Fail(tx.AccountRoleMismatch, "mint does not match the record", zap.Stringer("mint", mintA))
	}

	esc, err := keylet.Escrow(rec.Maker, rec.Seed)
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

	if r := createIdempotent(ctx, maker, maker, mintA); r != tx.Success {
		return r
	}
	return drainAndClose(ctx, rec, escrowKey, vaultKey, makerAtaA, maker)
}
