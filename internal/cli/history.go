package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrowd/internal/di"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
	"github.com/LeJamon/goEscrowd/internal/types"
)

var (
	historyLimit int
	historyHash  bool
)

var errHistoryDisabled = errors.New("transaction history is disabled; set history.driver")

var historyCmd = &cobra.Command{
	Use:   "history <address|hash>",
	Short: "List journaled transactions",
	Long: `List the newest journaled transactions touching an account, or with --hash the
transactions with a given hash. Requires history.driver to be sqlite or postgres.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withServices(ctx, func(c *di.Container) error {
			j, err := di.Journal(c)
			if err != nil {
				return err
			}
			if j == nil {
				return errHistoryDisabled
			}
			return history(ctx, cmd.OutOrStdout(), j, args[0], historyHash, historyLimit)
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum records to list")
	historyCmd.Flags().BoolVar(&historyHash, "hash", false, "treat the argument as a transaction hash")
	rootCmd.AddCommand(historyCmd)
}

func history(ctx context.Context, out io.Writer, j relationaldb.Journal, arg string, byHash bool, limit int) error {
	var (
		records []relationaldb.TxRecord
		err     error
	)
	if byHash {
		records, err = j.ByHash(ctx, arg)
	} else {
		var key types.Pubkey
		if key, err = types.ParsePubkey(arg); err != nil {
			return fmt.Errorf("address: %w", err)
		}
		records, err = j.AccountTransactions(ctx, key.String(), limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tHASH\tRESULT\tINSTR\tATTEMPTS\tAPPLIED")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			r.Seq, r.Hash, r.Result, r.Instructions, r.Attempts, r.AppliedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
