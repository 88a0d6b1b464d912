package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrowd/internal/config"
	"github.com/LeJamon/goEscrowd/internal/di"
)

var (
	// Global flags
	configFile string
	debug      bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "escrowd",
	Short: "goEscrowd - two-party token escrow runtime",
	Long: `goEscrowd runs a two-party token escrow program on a local account ledger.
A maker locks tokens of one mint in a vault owned by a derived address; a taker
settles by paying the requested amount of another mint, or the maker refunds.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print results only")
}

// loadConfig reads --conf, the environment and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// openServices wires the configured services. The caller must di.Close the
// container.
func openServices(ctx context.Context) (*di.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c := di.New()
	if err := di.NewProvider(c, cfg).WithContext(ctx).RegisterAll(); err != nil {
		return nil, err
	}
	return c, nil
}

// withServices runs fn against freshly wired services and closes them after.
func withServices(ctx context.Context, fn func(c *di.Container) error) (err error) {
	c, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := di.Close(c); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(c)
}
