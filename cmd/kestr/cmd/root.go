package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/config"
	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/logging"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	root       string
	dataDir    string
	configDir  string
	socketPath string
	debug      bool
}

var flags globalFlags

// Execute builds and runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kestr",
		Short:         "Background code-indexing daemon with hybrid search",
		Long:          `kestr indexes a codebase incrementally and serves hybrid keyword/semantic search over a local socket.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flags.root, "root", ".", "directory to index")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", config.DefaultDataDir(), "directory holding the index database and ANN state")
	root.PersistentFlags().StringVar(&flags.configDir, "config", config.DefaultConfigDir(), "directory holding config.json")
	root.PersistentFlags().StringVar(&flags.socketPath, "socket", daemon.DefaultSocketPath(), "path to the daemon's Unix domain socket")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newReindexCmd())
	root.AddCommand(newShutdownCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// setupLogging initializes file logging per the --debug flag and
// returns a cleanup function. Failures are non-fatal: the daemon still
// runs, just without a log file.
func setupLogging() func() {
	logCfg := logging.DefaultConfig()
	if flags.debug {
		logCfg = logging.DebugConfig()
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		slog.Warn("logging: setup failed, continuing without file logging", "error", err)
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}
