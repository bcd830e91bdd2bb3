package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kestr-dev/kestr/internal/scanner"
)

func TestPushPopFIFO(t *testing.T) {
	q := New()
	q.Push(scanner.FileInfo{Path: "a"})
	q.Push(scanner.FileInfo{Path: "b"})

	require.Equal(t, 2, q.Size())

	item, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "a", item.Path)

	item, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "b", item.Path)
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan scanner.FileInfo, 1)
	go func() {
		item, ok := q.Pop()
		if ok {
			done <- item
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Push(scanner.FileInfo{Path: "late"})

	select {
	case item := <-done:
		require.Equal(t, "late", item.Path)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestStopWakesAllWaiters(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := q.Pop()
			results[i] = ok
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	q.Stop()

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("Stop did not wake all waiters")
	}
	for _, ok := range results {
		require.False(t, ok)
	}
}

func TestStopDrainsRemainingItemsFirst(t *testing.T) {
	q := New()
	q.Push(scanner.FileInfo{Path: "a"})
	q.Stop()

	item, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "a", item.Path)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestPushAfterStopIsNoop(t *testing.T) {
	q := New()
	q.Stop()
	q.Push(scanner.FileInfo{Path: "a"})
	require.Equal(t, 0, q.Size())
}
