package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/canbus"
)

func dumpCmd() *cobra.Command {
	var limit int
	var opts *busOptions

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print frames as they arrive on the bus",
		Long: `Dump opens the selected bus and prints every received frame until
interrupted. Classic and FD frames render in their diagnostic form,
including error frames reported by the interface.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, limit, opts)
		},
	}

	cmd.Flags().IntVarP(&limit, "count", "n", 0, "stop after this many frames, 0 runs until interrupted")
	opts = addBusFlags(cmd)
	return cmd
}

func runDump(cmd *cobra.Command, limit int, opts *busOptions) error {
	bus, err := opts.dial()
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "listening on %s\n", opts.name())

	for received := 0; limit == 0 || received < limit; received++ {
		frame, err := bus.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, canbus.ErrClosed) {
				return nil
			}
			return err
		}
		fmt.Fprintln(out, frame)
	}
	return nil
}
