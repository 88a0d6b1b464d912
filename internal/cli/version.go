package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goEscrowd/internal/core/tx"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/all"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for goEscrowd, the built-in programs and the Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "goEscrowd version %s\n", rootCmd.Version)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintln(out, "Programs:")
		for _, p := range tx.DefaultRegistry.Programs() {
			fmt.Fprintf(out, "  %-18s %s\n", p.Name(), p.ProgramID())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
