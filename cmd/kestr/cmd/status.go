package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running and its index state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output status as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	client := &daemon.Client{SocketPath: flags.socketPath}
	resp, err := client.Call(daemon.MethodStatus, nil)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("status: %s", resp.Error)
	}

	out := output.New(cmd.OutOrStdout(), jsonOutput)
	return out.Value("status", resp.Result)
}
