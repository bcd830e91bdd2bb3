package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/output"
	"github.com/kestr-dev/kestr/internal/query"
)

func newQueryCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Query the running daemon for search results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output results as JSON")
	return cmd
}

func runQuery(cmd *cobra.Command, q string, jsonOutput bool) error {
	client := &daemon.Client{SocketPath: flags.socketPath}
	raw, err := client.Query(q)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	var results []query.Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("query: decode results: %w", err)
	}

	out := output.New(cmd.OutOrStdout(), jsonOutput)
	return out.Results(results)
}
