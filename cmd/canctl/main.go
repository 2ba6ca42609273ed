package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "canctl",
		Short: "Inspect and exercise CAN buses",
		Long: `canctl talks to SocketCAN interfaces and slcan serial adapters.

It can dump live traffic, transmit single frames, decode raw frame
regions, and generate bridge daemon configuration files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime()
		},
	}

	rootCmd.AddCommand(
		dumpCmd(),
		sendCmd(),
		inspectCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "canctl: %v\n", err)
		os.Exit(1)
	}
}
