package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/output"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Trigger a full rescan of the indexed root",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &daemon.Client{SocketPath: flags.socketPath}
			resp, err := client.Call(daemon.MethodReindex, nil)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			if resp.Error != "" {
				return fmt.Errorf("reindex: %s", resp.Error)
			}
			output.New(cmd.OutOrStdout(), false).Status("", "reindex started")
			return nil
		},
	}
}
