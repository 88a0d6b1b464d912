package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/genesis"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	"github.com/LeJamon/goEscrowd/internal/core/tx/escrow"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	keys "github.com/LeJamon/goEscrowd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goEscrowd/internal/di"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Scenario amounts.
const (
	simulateFund     = uint64(10_000_000_000)
	simulateMakerA   = uint64(1000)
	simulateTakerB   = uint64(500)
	simulateDeposit  = uint64(100)
	simulateReceive  = uint64(50)
	simulateDecimals = 6
)

var simulateRun string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an open/settle and open/refund scenario",
	Long: `Fund a maker and a taker, create two mints, then open escrow seed 1 and let
the taker settle it, and open escrow seed 2 and refund it. Balances are printed
after every step and the outcome is checked. Participants are derived from --run,
so repeated runs against a persistent ledger reuse the same accounts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withServices(ctx, func(c *di.Container) error {
			engine, err := di.Engine(c)
			if err != nil {
				return err
			}
			l, err := di.Resolve[*ledger.Ledger](c, di.ServiceLedger)
			if err != nil {
				return err
			}
			logger, err := di.Resolve[*zap.Logger](c, di.ServiceLogger)
			if err != nil {
				return err
			}
			s := newScenario(engine, l, simulateRun, logger.Named("simulate"))
			report, err := s.run(ctx)
			if report != nil {
				report.print(cmd.OutOrStdout(), quiet)
			}
			return err
		})
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateRun, "run", "demo", "name the participants are derived from")
	rootCmd.AddCommand(simulateCmd)
}

// participant is a wallet with a key derived from its name.
type participant struct {
	name string
	key  types.Pubkey
}

func newParticipant(run, name string) participant {
	return participant{name: name, key: keys.FromName(run + "/" + name).Pubkey}
}

// balances is a snapshot taken after a scenario step.
type balances struct {
	Step   string
	MakerA uint64
	MakerB uint64
	TakerA uint64
	TakerB uint64
	Vault  uint64
}

type scenarioReport struct {
	Maker, Taker types.Pubkey
	MintA, MintB types.Pubkey
	Escrow1      types.Pubkey
	Escrow2      types.Pubkey
	Steps        []balances
}

func (r *scenarioReport) step(name string) (balances, bool) {
	for _, b := range r.Steps {
		if b.Step == name {
			return b, true
		}
	}
	return balances{}, false
}

func (r *scenarioReport) print(out io.Writer, quiet bool) {
	if !quiet {
		fmt.Fprintf(out, "maker:    %s\n", r.Maker)
		fmt.Fprintf(out, "taker:    %s\n", r.Taker)
		fmt.Fprintf(out, "mint a:   %s\n", r.MintA)
		fmt.Fprintf(out, "mint b:   %s\n", r.MintB)
		fmt.Fprintf(out, "escrow 1: %s\n", r.Escrow1)
		fmt.Fprintf(out, "escrow 2: %s\n\n", r.Escrow2)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "STEP\tMAKER A\tMAKER B\tTAKER A\tTAKER B\tVAULT\t")
	for _, b := range r.Steps {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t\n", b.Step, b.MakerA, b.MakerB, b.TakerA, b.TakerB, b.Vault)
	}
	_ = w.Flush()
}

type scenario struct {
	engine *tx.Engine
	ledger *ledger.Ledger
	log    *zap.Logger

	maker, taker participant
	mintA, mintB participant
}

func newScenario(engine *tx.Engine, l *ledger.Ledger, run string, log *zap.Logger) *scenario {
	return &scenario{
		engine: engine,
		ledger: l,
		log:    log,
		maker:  newParticipant(run, "maker"),
		taker:  newParticipant(run, "taker"),
		mintA:  newParticipant(run, "mint-a"),
		mintB:  newParticipant(run, "mint-b"),
	}
}

func (s *scenario) submit(ctx context.Context, step string, signers []types.Pubkey, ixs ...tx.Instruction) error {
	res := s.engine.Submit(ctx, tx.NewTransaction(signers, ixs...))
	s.log.Debug("step applied",
		zap.String("step", step), zap.Stringer("result", res.Result), zap.Int("attempts", res.Attempts))
	if !res.Applied {
		return fmt.Errorf("%s: %w", step, res.Result.Err())
	}
	return nil
}

func (s *scenario) tokenBalance(ctx context.Context, owner, mint types.Pubkey) (uint64, error) {
	k, err := keylet.AssociatedToken(owner, mint)
	if err != nil {
		return 0, err
	}
	return s.holdingAmount(ctx, k.Address)
}

func (s *scenario) holdingAmount(ctx context.Context, key types.Pubkey) (uint64, error) {
	acc, err := s.ledger.Get(ctx, key)
	if err != nil || acc == nil {
		return 0, err
	}
	h, err := token.UnpackAccount(acc.Data)
	if err != nil {
		return 0, fmt.Errorf("holding %s: %w", key, err)
	}
	return h.Amount, nil
}

func (s *scenario) snapshot(ctx context.Context, step string, vault types.Pubkey) (balances, error) {
	b := balances{Step: step}
	reads := []struct {
		dst         *uint64
		owner, mint types.Pubkey
	}{
		{&b.MakerA, s.maker.key, s.mintA.key},
		{&b.MakerB, s.maker.key, s.mintB.key},
		{&b.TakerA, s.taker.key, s.mintA.key},
		{&b.TakerB, s.taker.key, s.mintB.key},
	}
	for _, r := range reads {
		v, err := s.tokenBalance(ctx, r.owner, r.mint)
		if err != nil {
			return b, err
		}
		*r.dst = v
	}
	v, err := s.holdingAmount(ctx, vault)
	if err != nil {
		return b, err
	}
	b.Vault = v
	return b, nil
}

// ensureMint creates mint under authority unless it already exists.
func (s *scenario) ensureMint(ctx context.Context, mint, authority participant) error {
	acc, err := s.ledger.Get(ctx, mint.key)
	if err != nil || acc != nil {
		return err
	}
	rent := s.engine.Config().Rent.MinimumBalance(token.MintLen)
	return s.submit(ctx, "create "+mint.name, []types.Pubkey{authority.key, mint.key},
		system.CreateAccount(authority.key, mint.key, rent, token.MintLen, types.TokenProgramID),
		token.InitializeMint2(mint.key, simulateDecimals, authority.key, nil),
	)
}

// topUp mints until owner holds target units of mint.
func (s *scenario) topUp(ctx context.Context, mint, owner participant, target uint64) error {
	held, err := s.tokenBalance(ctx, owner.key, mint.key)
	if err != nil || held >= target {
		return err
	}
	ata, err := keylet.AssociatedToken(owner.key, mint.key)
	if err != nil {
		return err
	}
	return s.submit(ctx, "mint "+mint.name, []types.Pubkey{owner.key},
		associated.CreateIdempotent(owner.key, owner.key, mint.key),
		token.MintTo(mint.key, ata.Address, owner.key, target-held),
	)
}

func (s *scenario) setup(ctx context.Context) error {
	for _, p := range []participant{s.maker, s.taker} {
		created, err := genesis.FundWallet(ctx, s.ledger, p.key, simulateFund)
		if err != nil {
			return err
		}
		if created {
			s.log.Info("funded participant", zap.String("name", p.name), zap.Stringer("address", p.key))
		}
	}
	if err := s.ensureMint(ctx, s.mintA, s.maker); err != nil {
		return err
	}
	if err := s.ensureMint(ctx, s.mintB, s.taker); err != nil {
		return err
	}
	if err := s.topUp(ctx, s.mintA, s.maker, simulateMakerA); err != nil {
		return err
	}
	return s.topUp(ctx, s.mintB, s.taker, simulateTakerB)
}

// run executes the scenario. The report holds every snapshot taken before
// a failure.
func (s *scenario) run(ctx context.Context) (*scenarioReport, error) {
	vault := func(seed uint64) (types.Pubkey, types.Pubkey, error) {
		e, err := keylet.Escrow(s.maker.key, seed)
		if err != nil {
			return types.Pubkey{}, types.Pubkey{}, err
		}
		v, err := keylet.Vault(e.Address, s.mintA.key)
		return e.Address, v.Address, err
	}
	escrow1, vault1, err := vault(1)
	if err != nil {
		return nil, err
	}
	escrow2, vault2, err := vault(2)
	if err != nil {
		return nil, err
	}

	report := &scenarioReport{
		Maker: s.maker.key, Taker: s.taker.key,
		MintA: s.mintA.key, MintB: s.mintB.key,
		Escrow1: escrow1, Escrow2: escrow2,
	}
	if err := s.setup(ctx); err != nil {
		return report, err
	}

	makerOnly := []types.Pubkey{s.maker.key}
	takerOnly := []types.Pubkey{s.taker.key}
	steps := []struct {
		name    string
		signers []types.Pubkey
		ix      tx.Instruction
		vault   types.Pubkey
	}{
		{"funded", nil, tx.Instruction{}, vault1},
		{"open 1", makerOnly, escrow.Make(s.maker.key, s.mintA.key, s.mintB.key, 1, simulateDeposit, simulateReceive), vault1},
		{"settle 1", takerOnly, escrow.Take(s.taker.key, s.maker.key, s.mintA.key, s.mintB.key, 1), vault1},
		{"open 2", makerOnly, escrow.Make(s.maker.key, s.mintA.key, s.mintB.key, 2, simulateDeposit, simulateReceive), vault2},
		{"refund 2", makerOnly, escrow.Refund(s.maker.key, s.mintA.key, 2), vault2},
	}
	for _, st := range steps {
		if st.signers != nil {
			if err := s.submit(ctx, st.name, st.signers, st.ix); err != nil {
				return report, err
			}
		}
		b, err := s.snapshot(ctx, st.name, st.vault)
		if err != nil {
			return report, err
		}
		report.Steps = append(report.Steps, b)
	}
	return report, s.verify(ctx, report)
}

// verify checks the balances the scenario must produce.
func (s *scenario) verify(ctx context.Context, r *scenarioReport) error {
	funded, _ := r.step("funded")
	opened, _ := r.step("open 1")
	settled, _ := r.step("settle 1")
	refunded, _ := r.step("refund 2")

	checks := []struct {
		what      string
		got, want uint64
	}{
		{"vault after open", opened.Vault, simulateDeposit},
		{"taker asset A after settle", settled.TakerA, funded.TakerA + simulateDeposit},
		{"maker asset B after settle", settled.MakerB, funded.MakerB + simulateReceive},
		{"maker asset A after refund", refunded.MakerA, settled.MakerA},
	}
	for _, c := range checks {
		if c.got != c.want {
			return fmt.Errorf("%s: got %d, want %d", c.what, c.got, c.want)
		}
	}
	for _, key := range []types.Pubkey{r.Escrow1, r.Escrow2} {
		acc, err := s.ledger.Get(ctx, key)
		if err != nil {
			return err
		}
		if acc != nil {
			return fmt.Errorf("escrow %s still exists", key)
		}
	}
	return nil
}
