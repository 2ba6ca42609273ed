package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/can"
)

const sendTimeout = 5 * time.Second

func sendCmd() *cobra.Command {
	var (
		extended bool
		remote   bool
		brs      bool
	)
	var opts *busOptions

	cmd := &cobra.Command{
		Use:   "send <id> [payload]",
		Short: "Transmit a single frame",
		Long: `Send encodes one frame and writes it to the selected bus. The
identifier and payload are hexadecimal; a payload longer than eight
bytes produces an FD frame.

  canctl send 123 DEADBEEF
  canctl send 18DAF110 0102 --extended
  canctl send 7FF --remote`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts, extended, remote, brs, args)
		},
	}

	cmd.Flags().BoolVarP(&extended, "extended", "e", false, "use a 29 bit identifier")
	cmd.Flags().BoolVarP(&remote, "remote", "r", false, "send a remote transmission request")
	cmd.Flags().BoolVar(&brs, "brs", false, "set the FD bit rate switch flag")
	opts = addBusFlags(cmd)
	return cmd
}

func runSend(cmd *cobra.Command, opts *busOptions, extended, remote, brs bool, args []string) error {
	raw, err := parseSendID(args[0], extended)
	if err != nil {
		return err
	}
	if remote {
		raw |= can.FlagRemoteRequest
	}

	var payload []byte
	if len(args) == 2 {
		payload, err = hex.DecodeString(strings.ReplaceAll(args[1], ".", ""))
		if err != nil {
			return fmt.Errorf("payload %q is not hexadecimal: %w", args[1], err)
		}
	}

	var flags byte
	if brs {
		flags |= can.FDFlagBitRateSwitch
	}

	frame, err := can.NewFrame(raw, flags, payload)
	if err != nil {
		return err
	}

	bus, err := opts.dial()
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := bus.Send(ctx, frame); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", frame)
	return nil
}

func parseSendID(arg string, extended bool) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("identifier %q is not hexadecimal: %w", arg, err)
	}

	mask := uint64(can.MaskStandard)
	if extended {
		mask = uint64(can.MaskExtended)
	}
	if id > mask {
		return 0, fmt.Errorf("identifier %#x does not fit the addressing mode, maximum is %#x", id, mask)
	}

	raw := uint32(id)
	if extended {
		raw |= can.FlagExtended
	}
	return raw, nil
}
