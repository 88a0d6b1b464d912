package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/types"
)

var (
	deriveMaker string
	deriveSeed  uint64
	deriveMintA string
	deriveOwner string
	deriveMint  string
	deriveUser  string
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive program addresses",
	Long:  `Compute the derived addresses the escrow, holding-account and vault programs use. No ledger is opened.`,
}

var deriveEscrowCmd = &cobra.Command{
	Use:   "escrow",
	Short: "Derive the escrow record address for a maker and seed",
	RunE: func(cmd *cobra.Command, args []string) error {
		maker, err := types.ParsePubkey(deriveMaker)
		if err != nil {
			return fmt.Errorf("--maker: %w", err)
		}
		var mintA *types.Pubkey
		if deriveMintA != "" {
			m, err := types.ParsePubkey(deriveMintA)
			if err != nil {
				return fmt.Errorf("--mint-a: %w", err)
			}
			mintA = &m
		}
		return deriveEscrow(cmd.OutOrStdout(), maker, deriveSeed, mintA)
	},
}

var deriveATACmd = &cobra.Command{
	Use:   "ata",
	Short: "Derive the associated holding account of an owner for a mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := types.ParsePubkey(deriveOwner)
		if err != nil {
			return fmt.Errorf("--owner: %w", err)
		}
		mint, err := types.ParsePubkey(deriveMint)
		if err != nil {
			return fmt.Errorf("--mint: %w", err)
		}
		k, err := keylet.AssociatedToken(owner, mint)
		if err != nil {
			return err
		}
		printKeylet(cmd.OutOrStdout(), "ata", k)
		return nil
	},
}

var deriveVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Derive a user's lamport vault state and vault addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := types.ParsePubkey(deriveUser)
		if err != nil {
			return fmt.Errorf("--user: %w", err)
		}
		state, err := keylet.VaultState(user)
		if err != nil {
			return err
		}
		vault, err := keylet.LamportVault(state.Address)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printKeylet(out, "state", state)
		printKeylet(out, "vault", vault)
		return nil
	},
}

func init() {
	deriveEscrowCmd.Flags().StringVar(&deriveMaker, "maker", "", "maker address (base58)")
	deriveEscrowCmd.Flags().Uint64Var(&deriveSeed, "seed", 0, "escrow seed")
	deriveEscrowCmd.Flags().StringVar(&deriveMintA, "mint-a", "", "deposited mint; also derives the vault")
	_ = deriveEscrowCmd.MarkFlagRequired("maker")

	deriveATACmd.Flags().StringVar(&deriveOwner, "owner", "", "owner address (base58)")
	deriveATACmd.Flags().StringVar(&deriveMint, "mint", "", "mint address (base58)")
	_ = deriveATACmd.MarkFlagRequired("owner")
	_ = deriveATACmd.MarkFlagRequired("mint")

	deriveVaultCmd.Flags().StringVar(&deriveUser, "user", "", "vault owner (base58)")
	_ = deriveVaultCmd.MarkFlagRequired("user")

	deriveCmd.AddCommand(deriveEscrowCmd, deriveATACmd, deriveVaultCmd)
	rootCmd.AddCommand(deriveCmd)
}

func deriveEscrow(out io.Writer, maker types.Pubkey, seed uint64, mintA *types.Pubkey) error {
	escrow, err := keylet.Escrow(maker, seed)
	if err != nil {
		return err
	}
	printKeylet(out, "escrow", escrow)
	if mintA == nil {
		return nil
	}
	vault, err := keylet.Vault(escrow.Address, *mintA)
	if err != nil {
		return err
	}
	printKeylet(out, "vault", vault)
	return nil
}

func printKeylet(out io.Writer, label string, k keylet.Keylet) {
	fmt.Fprintf(out, "%-7s %s bump=%d\n", label+":", k.Address, k.Bump)
}
