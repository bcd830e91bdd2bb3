// Package indexer implements the single long-lived work queue consumer
// (spec.md §4.H). Grounded on internal/index/coordinator.go's
// indexFile/removeFile split, restructured around the pop-chunk-commit
// loop the queue-based design requires.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kestr-dev/kestr/internal/ann"
	"github.com/kestr-dev/kestr/internal/chunk"
	"github.com/kestr-dev/kestr/internal/embed"
	"github.com/kestr-dev/kestr/internal/queue"
	"github.com/kestr-dev/kestr/internal/scanner"
	"github.com/kestr-dev/kestr/internal/store"
)

// ChunkSize and ChunkOverlap are the fixed parameters the worker applies
// to every file, per spec.md §4.H step 3.
const (
	ChunkSize    = 100
	ChunkOverlap = 10
)

// allowedExtensions is the worker's extension allow-list. It is a policy
// parameter, not a protocol, and is not user-configurable.
var allowedExtensions = map[string]bool{
	".cpp":  true,
	".hpp":  true,
	".h":    true,
	".md":   true,
	".txt":  true,
	".json": true,
}

// Worker pops FileInfo from a queue and commits chunks to the store and,
// when live, the ANN.
type Worker struct {
	Queue    *queue.Queue
	Store    *store.Store
	Index    *ann.Index // nil in DISK mode
	Embedder embed.Embedder
}

// Run drains the queue until it is stopped. It is meant to be run on its
// own goroutine; ctx cancellation does not interrupt a queue pop already
// in flight (the queue's Stop() is the shutdown mechanism, per spec.md §5).
func (w *Worker) Run(ctx context.Context) {
	for {
		item, ok := w.Queue.Pop()
		if !ok {
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, info scanner.FileInfo) {
	if !allowedExtensions[filepath.Ext(info.Path)] {
		return
	}

	content, err := os.ReadFile(info.Path)
	if err != nil {
		slog.Warn("indexer: unreadable file, skipping", "path", info.Path, "error", err)
		return
	}

	chunks := chunk.Split(string(content), ChunkSize, ChunkOverlap)

	w.Store.Lock()
	defer w.Store.Unlock()

	if err := w.Store.UpsertFile(info.Path, info.Hash, info.Mtime, info.Size); err != nil {
		slog.Warn("indexer: upsert_file failed", "path", info.Path, "error", err)
		return
	}

	for _, c := range chunks {
		vector, err := w.embed(ctx, c.Text)
		if err != nil {
			slog.Warn("indexer: embedding failed, committing keyword-only", "path", info.Path, "error", err)
			vector = nil
		}

		id, err := w.Store.InsertChunk(info.Path, store.Chunk{
			Content: c.Text,
			Start:   c.Start,
			End:     c.End,
		}, vector)
		if err != nil {
			slog.Warn("indexer: insert_chunk failed", "path", info.Path, "error", err)
			continue
		}

		if w.Index != nil && len(vector) > 0 {
			if err := w.Index.Add(id, vector); err != nil {
				slog.Warn("indexer: ANN add failed", "chunk_id", id, "error", err)
			}
		}
	}

	if err := w.Store.MarkIndexed(info.Path, true); err != nil {
		slog.Warn("indexer: mark_indexed failed", "path", info.Path, "error", err)
	}
}

func (w *Worker) embed(ctx context.Context, text string) ([]float32, error) {
	if w.Embedder == nil {
		return nil, nil
	}
	return w.Embedder.Embed(ctx, text)
}
