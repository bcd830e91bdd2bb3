// Package queue implements the unbounded FIFO handoff from the scanner
// and watcher producers to the indexer worker.
//
// There is no direct teacher analog for a blocking producer/consumer
// queue (internal/async.BackgroundIndexer is a single-job lock-guarded
// runner, not a FIFO); it is built on a mutex plus a sync.Cond, whose
// Broadcast in Stop wakes every blocked Pop.
package queue

import (
	"sync"

	"github.com/kestr-dev/kestr/internal/scanner"
)

// Queue is an unbounded FIFO of scanner.FileInfo values, safe for
// multiple producers and one or more consumers.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []scanner.FileInfo
	stopped bool
}

// New returns an empty, running Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an item. Never blocks.
func (q *Queue) Push(item scanner.FileInfo) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item is available or the queue is stopped. The
// second return value is false once the queue is stopped and drained.
func (q *Queue) Pop() (scanner.FileInfo, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return scanner.FileInfo{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Stop wakes every blocked Pop. Subsequent Pops return remaining items
// until drained, then return false.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Size returns the number of items currently queued.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
