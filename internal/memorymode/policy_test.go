package memorymode

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestr-dev/kestr/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "kestr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedChunks(t *testing.T, s *store.Store, n int, dim int) {
	t.Helper()
	s.Lock()
	defer s.Unlock()
	require.NoError(t, s.UpsertFile("/a.txt", "h", 0, 0))
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		v[0] = float32(i)
		_, err := s.InsertChunk("/a.txt", store.Chunk{Content: "x", Start: i + 1, End: i + 1}, v)
		require.NoError(t, err)
	}
}

func TestDiskModeDoesNotConstructIndex(t *testing.T) {
	s := newStore(t)
	seedChunks(t, s, 5, 4)

	idx, err := Bootstrap(Disk, 0, 4, s)
	require.NoError(t, err)
	require.Nil(t, idx)
}

func TestRAMModeLoadsEveryVector(t *testing.T) {
	s := newStore(t)
	seedChunks(t, s, 5, 4)

	idx, err := Bootstrap(RAM, 0, 4, s)
	require.NoError(t, err)
	require.NotNil(t, idx)
	require.Equal(t, 5, idx.Count())
}

func TestHybridModeStopsAtLimit(t *testing.T) {
	s := newStore(t)
	seedChunks(t, s, 10, 4)

	idx, err := Bootstrap(Hybrid, 3, 4, s)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Count())
}

func TestDimensionMismatchIsDropped(t *testing.T) {
	s := newStore(t)
	seedChunks(t, s, 2, 4)

	idx, err := Bootstrap(RAM, 0, 8, s)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Count())
}
