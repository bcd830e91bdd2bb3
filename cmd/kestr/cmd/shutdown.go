package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/output"
)

func newShutdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Ask the running daemon to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &daemon.Client{SocketPath: flags.socketPath}
			resp, err := client.Call(daemon.MethodShutdown, nil)
			if err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if resp.Error != "" {
				return fmt.Errorf("shutdown: %s", resp.Error)
			}
			output.New(cmd.OutOrStdout(), false).Status("", "shutdown requested")
			return nil
		},
	}
}
