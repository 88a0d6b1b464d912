package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/genesis"
	"github.com/LeJamon/goEscrowd/internal/core/tx/escrow"
	"github.com/LeJamon/goEscrowd/internal/core/tx/staking"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/core/tx/vault"
	"github.com/LeJamon/goEscrowd/internal/di"
	"github.com/LeJamon/goEscrowd/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <address>",
	Short: "Show a ledger account",
	Long: `Print the stored account at address as JSON. Escrow records, mints, holding
accounts, vault state, staking accounts and program accounts are decoded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := types.ParsePubkey(args[0])
		if err != nil {
			return fmt.Errorf("address: %w", err)
		}
		ctx := cmd.Context()
		return withServices(ctx, func(c *di.Container) error {
			l, err := di.Resolve[*ledger.Ledger](c, di.ServiceLedger)
			if err != nil {
				return err
			}
			return inspect(ctx, cmd.OutOrStdout(), l, key)
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect(ctx context.Context, out io.Writer, l *ledger.Ledger, key types.Pubkey) error {
	acc, err := l.Get(ctx, key)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("account %s not found", key)
	}
	data, err := json.MarshalIndent(describeAccount(key, acc), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// describeAccount renders acc, decoding its data when the owner's layout is
// known.
func describeAccount(key types.Pubkey, acc *entry.Account) map[string]interface{} {
	out := map[string]interface{}{
		"address":    key,
		"lamports":   acc.Lamports,
		"owner":      acc.Owner,
		"executable": acc.Executable,
		"data_len":   len(acc.Data),
	}

	var kind string
	var decoded interface{}
	switch acc.Owner {
	case genesis.NativeLoaderID:
		kind, decoded = "program", string(acc.Data)
	case types.SystemProgramID:
		kind = "wallet"
	case types.EscrowProgramID:
		if r, err := escrow.UnpackRecord(acc.Data); err == nil {
			kind, decoded = "escrow", r
		}
	case types.TokenProgramID:
		if m, err := token.UnpackMint(acc.Data); err == nil {
			kind, decoded = "mint", m
		} else if h, err := token.UnpackAccount(acc.Data); err == nil {
			kind, decoded = "holding", h
		}
	case types.VaultProgramID:
		if s, err := vault.UnpackState(acc.Data); err == nil {
			kind, decoded = "vault_state", s
		}
	case types.StakingProgramID:
		if c, err := staking.UnpackConfig(acc.Data); err == nil {
			kind, decoded = "stake_config", c
		} else if u, err := staking.UnpackUser(acc.Data); err == nil {
			kind, decoded = "stake_user", u
		} else if r, err := staking.UnpackStake(acc.Data); err == nil {
			kind, decoded = "stake_record", r
		}
	}
	if kind == "" {
		kind = "unknown"
	}
	out["kind"] = kind
	if decoded != nil {
		out["decoded"] = decoded
	} else if len(acc.Data) > 0 {
		out["data_hex"] = hex.EncodeToString(acc.Data)
	}
	return out
}
