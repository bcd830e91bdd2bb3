package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestr-dev/kestr/internal/config"
	"github.com/kestr-dev/kestr/internal/daemon"
	"github.com/kestr-dev/kestr/internal/embed"
	"github.com/kestr-dev/kestr/internal/ignore"
	"github.com/kestr-dev/kestr/internal/indexer"
	"github.com/kestr-dev/kestr/internal/mcpadapter"
	"github.com/kestr-dev/kestr/internal/memorymode"
	"github.com/kestr-dev/kestr/internal/queue"
	"github.com/kestr-dev/kestr/internal/query"
	"github.com/kestr-dev/kestr/internal/scanner"
	"github.com/kestr-dev/kestr/internal/store"
	"github.com/kestr-dev/kestr/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var mcpMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the indexing daemon: watch, index, and serve search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), mcpMode)
		},
	}

	cmd.Flags().BoolVar(&mcpMode, "mcp", false, "also expose search over the Model Context Protocol on stdio")

	return cmd
}

// runServe wires the full pipeline: config, store, embedder, ANN
// bootstrap, indexer worker, watcher, query coordinator, and the IPC
// server. On shutdown the IPC server stops first (ListenAndServe
// returns on a signal or a shutdown request), then the queue and the
// watcher are stopped, then the worker and watcher goroutines are
// joined.
func runServe(ctx context.Context, mcpMode bool) error {
	cleanup := setupLogging()
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, err := filepath.Abs(flags.root)
	if err != nil {
		return fmt.Errorf("serve: resolve root: %w", err)
	}

	cfg, err := config.Load(flags.configDir)
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}

	pidFile := daemon.NewPIDFile(filepath.Join(flags.dataDir, "kestr.pid"))
	if err := pidFile.Acquire(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer pidFile.Release()

	s, err := store.Open(filepath.Join(flags.dataDir, "kestr.db"))
	if err != nil {
		return fmt.Errorf("serve: open store: %w", err)
	}
	defer s.Close()

	embedder, err := embed.New(embed.Config{
		Backend:   cfg.EmbeddingBackend,
		Model:     cfg.EmbeddingModel,
		Endpoint:  cfg.EmbeddingEndpoint,
		OpenAIKey: cfg.OpenAIKey,
	})
	if err != nil {
		return fmt.Errorf("serve: construct embedder: %w", err)
	}
	defer embedder.Close()

	mode := memorymode.Mode(cfg.MemoryMode)
	annIndex, err := memorymode.Bootstrap(mode, cfg.HybridLimit, embedder.Dimension(), s)
	if err != nil {
		return fmt.Errorf("serve: bootstrap ann: %w", err)
	}

	matcher := ignore.New()
	if err := matcher.AddDefaults(); err != nil {
		return fmt.Errorf("serve: load ignore defaults: %w", err)
	}

	sc, err := scanner.New(matcher)
	if err != nil {
		return fmt.Errorf("serve: construct scanner: %w", err)
	}

	q := queue.New()

	worker := &indexer.Worker{Queue: q, Store: s, Index: annIndex, Embedder: embedder}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(ctx)
	}()

	w, err := watcher.New(root, q, s, matcher)
	if err != nil {
		return fmt.Errorf("serve: construct watcher: %w", err)
	}
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		if err := w.Run(); err != nil {
			slog.Error("watcher exited", "error", err)
		}
	}()

	coordinator := query.New(s, annIndex, embedder, q, sc, root, mode)
	coordinator.Reindex()

	var mcpDone chan struct{}
	if mcpMode {
		mcpServer := mcpadapter.NewServer(coordinator)
		mcpDone = make(chan struct{})
		go func() {
			defer close(mcpDone)
			if err := mcpServer.Serve(ctx); err != nil {
				slog.Error("mcp adapter exited", "error", err)
			}
		}()
	}

	server := daemon.NewServer(flags.socketPath, coordinator)
	slog.Info("kestr serving", "root", root, "socket", flags.socketPath, "memory_mode", mode)

	serveErr := server.ListenAndServe(ctx)
	if errors.Is(serveErr, context.Canceled) {
		// A signal-driven shutdown is a clean exit, not a failure.
		serveErr = nil
	}

	// Shutdown order: queue, then watcher, then join the worker and
	// watcher goroutines. The IPC server has already stopped accepting
	// by the time ListenAndServe returns.
	q.Stop()
	if err := w.Stop(); err != nil {
		slog.Warn("watcher: stop failed", "error", err)
	}
	<-workerDone
	<-watcherDone
	if mcpDone != nil {
		<-mcpDone
	}

	return serveErr
}
