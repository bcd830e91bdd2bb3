package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCmdPrintsVersionString(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version", "--short"})

	require.NoError(t, cmd.Execute())
	require.NotEmpty(t, buf.String())
}

func TestRootCmdRegistersExpectedSubcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"serve", "query", "status", "reindex", "shutdown", "version"} {
		require.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestQueryCmdFailsCleanlyWhenDaemonNotRunning(t *testing.T) {
	flags.socketPath = "/tmp/kestr-nonexistent-test.sock"

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"query", "hello"})

	require.Error(t, cmd.Execute())
}
