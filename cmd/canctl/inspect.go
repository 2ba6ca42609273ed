package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/can"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <hex region>",
		Short: "Decode a raw frame region",
		Long: `Inspect decodes a hex encoded kernel frame region (16 bytes classic,
72 bytes FD) and prints every field of the frame it contains. Bytes may
be given as one string or as separate arguments.

  canctl inspect 230100000300000011223300000000ff
  canctl inspect 23 01 00 00 03 00 00 00 11 22 33 00 00 00 00 ff`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args)
		},
	}
	return cmd
}

func runInspect(out io.Writer, args []string) error {
	region, err := hex.DecodeString(strings.Join(args, ""))
	if err != nil {
		return fmt.Errorf("region is not hexadecimal: %w", err)
	}

	frame, err := can.Decode(region)
	if err != nil {
		return err
	}

	payload := make([]byte, frame.DataLength())
	frame.CopyPayload(payload)

	fmt.Fprintf(out, "Frame:       %s\n", frame)
	fmt.Fprintf(out, "Identifier:  %#x (%s)\n", frame.ID(), addressingMode(frame))
	fmt.Fprintf(out, "Raw word:    %#08x\n", frame.RawID())
	fmt.Fprintf(out, "Kind:        %s\n", frameKind(frame))
	fmt.Fprintf(out, "FD flags:    %s\n", fdFlags(frame))
	fmt.Fprintf(out, "Data length: %d\n", frame.DataLength())
	fmt.Fprintf(out, "Payload:     %s\n", payloadHex(payload))
	fmt.Fprintf(out, "Region size: %d bytes\n", frame.Size())
	fmt.Fprintf(out, "Hash:        %#016x\n", frame.Hash())
	if frame.IsError() {
		fmt.Fprintf(out, "Error cause: %#x\n", frame.ErrorCause())
	}
	return nil
}

func addressingMode(f can.Frame) string {
	if f.IsExtended() {
		return "extended, 29 bit"
	}
	return "standard, 11 bit"
}

func frameKind(f can.Frame) string {
	switch {
	case f.IsError():
		return "error report"
	case f.IsRemoteRequest():
		return "remote transmission request"
	case f.IsFD():
		return "FD data frame"
	default:
		return "classic data frame"
	}
}

func fdFlags(f can.Frame) string {
	var set []string
	if f.Flags()&can.FDFlagBitRateSwitch != 0 {
		set = append(set, "bit rate switch")
	}
	if f.Flags()&can.FDFlagErrorStateIndicator != 0 {
		set = append(set, "error state indicator")
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ", ")
}

func payloadHex(payload []byte) string {
	if len(payload) == 0 {
		return "empty"
	}
	return hex.EncodeToString(payload)
}
