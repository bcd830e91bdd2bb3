// Package query implements the request/response operations exposed over
// the IPC surface (spec.md §4.J): ping, status, reindex, shutdown, and
// the hybrid semantic/keyword query. Grounded on
// internal/daemon/server.go's request-dispatch shape and
// internal/mcp/server.go's search handler for the fallback ordering.
package query

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/kestr-dev/kestr/internal/ann"
	"github.com/kestr-dev/kestr/internal/embed"
	"github.com/kestr-dev/kestr/internal/memorymode"
	"github.com/kestr-dev/kestr/internal/queue"
	"github.com/kestr-dev/kestr/internal/scanner"
	"github.com/kestr-dev/kestr/internal/store"
)

// semanticK and keywordLimit are the fixed result counts from spec.md §4.J.
const (
	semanticK    = 5
	keywordLimit = 5
)

// Result is one assembled hit, tagged by the path that produced it. Lines
// is the two-element [start, end] span spec.md §4.J documents for both
// semantic and keyword hits.
type Result struct {
	Type    string `json:"type"` // "semantic" | "keyword"
	Content string `json:"content"`
	Lines   [2]int `json:"lines"`
}

// Status is the response to the status method.
type Status struct {
	MemoryItems int             `json:"memory_items"`
	QueueSize   int             `json:"queue_size"`
	MemoryMode  memorymode.Mode `json:"memory_mode"`
}

// Coordinator answers request/response operations over the store and
// ANN. It holds no global lock of its own; each store call acquires the
// store's reader for its own duration only.
type Coordinator struct {
	Store    *store.Store
	Index    *ann.Index // nil in DISK mode
	Embedder embed.Embedder
	Queue    *queue.Queue
	Scanner  *scanner.Scanner
	Root     string
	Mode     memorymode.Mode

	running      atomic.Bool
	reindexGroup singleflight.Group
}

// New constructs a Coordinator in the running state.
func New(s *store.Store, idx *ann.Index, e embed.Embedder, q *queue.Queue, sc *scanner.Scanner, root string, mode memorymode.Mode) *Coordinator {
	c := &Coordinator{Store: s, Index: idx, Embedder: e, Queue: q, Scanner: sc, Root: root, Mode: mode}
	c.running.Store(true)
	return c
}

// Ping answers the ping method.
func (c *Coordinator) Ping() string { return "pong" }

// Running reports whether the process-wide run flag is still set. The
// IPC server's accept loop polls this to decide when to stop.
func (c *Coordinator) Running() bool { return c.running.Load() }

// Status answers the status method.
func (c *Coordinator) Status() Status {
	items := 0
	if c.Index != nil {
		items = c.Index.Count()
	}
	return Status{
		MemoryItems: items,
		QueueSize:   c.Queue.Size(),
		MemoryMode:  c.Mode,
	}
}

// Reindex schedules a full scan from the configured root in a detached
// task that pushes every discovered file unconditionally, and returns
// immediately. Concurrent calls collapse onto a single in-flight scan.
func (c *Coordinator) Reindex() {
	go func() {
		_, err, _ := c.reindexGroup.Do("scan", func() (any, error) {
			return nil, c.Scanner.Scan(c.Root, func(info scanner.FileInfo) {
				c.Queue.Push(info)
			})
		})
		if err != nil {
			slog.Warn("query: reindex scan failed", "error", err)
		}
	}()
}

// Shutdown flips the run flag and returns immediately.
func (c *Coordinator) Shutdown() {
	c.running.Store(false)
}

// Query performs a hybrid search: semantic first when an embedder and
// ANN are live, falling back to keyword search when semantic produced
// nothing (spec.md §4.J).
func (c *Coordinator) Query(ctx context.Context, q string) ([]Result, error) {
	if results := c.semanticQuery(ctx, q); len(results) > 0 {
		return results, nil
	}
	return c.keywordQuery(q)
}

func (c *Coordinator) semanticQuery(ctx context.Context, q string) []Result {
	if c.Embedder == nil || c.Index == nil {
		return nil
	}

	vector, err := c.Embedder.Embed(ctx, q)
	if err != nil || len(vector) == 0 {
		return nil
	}

	ids, err := c.Index.Search(vector, semanticK)
	if err != nil {
		slog.Warn("query: ANN search failed", "error", err)
		return nil
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		chunk, ok, err := c.Store.GetChunk(id)
		if err != nil {
			slog.Warn("query: get_chunk failed", "chunk_id", id, "error", err)
			continue
		}
		if !ok {
			// Stale id: the chunk was deleted after the ANN was built or
			// loaded. Dropped silently per spec.md §4.J.
			continue
		}
		results = append(results, Result{Type: "semantic", Content: chunk.Content, Lines: [2]int{chunk.Start, chunk.End}})
	}
	return results
}

func (c *Coordinator) keywordQuery(q string) ([]Result, error) {
	chunks, err := c.Store.KeywordSearch(q, keywordLimit)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, Result{Type: "keyword", Content: chunk.Content, Lines: [2]int{chunk.Start, chunk.End}})
	}
	return results, nil
}
