package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danmuck/canctl/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bridge configuration files",
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var (
		kind      string
		output    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented configuration template",
		Long: `Init writes a starter configuration for the bridge daemon. The
"bridge" kind targets a real SocketCAN interface, "loopback" produces a
self contained demo that needs no hardware.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(output, kind, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "bridge", "template kind: bridge or loopback")
	cmd.Flags().StringVarP(&output, "output", "o", "bridge.toml", "destination path")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	return cmd
}
