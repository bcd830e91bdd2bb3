// Package ann is the in-memory approximate-nearest-neighbor vector index
// over chunk ids (spec.md §4.G). Chunk ids are already opaque
// monotonically increasing integers, so unlike the teacher's HNSWStore
// (which juggles a string-id <-> uint64-key translation layer) they
// serve directly as coder/hnsw graph keys.
package ann

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
)

// Index wraps a coder/hnsw graph keyed by chunk id, using the L2
// (Euclidean) distance metric per spec.md §4.G. The index exposes no
// delete: stale ids are tolerated and filtered by the query coordinator
// probing the store (spec.md §9, "soft deletion in the ANN").
type Index struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[int64]
	dimension int
	capacity  int
	count     int
}

// New constructs an Index for vectors of the given dimension, capped at
// max entries (the memory-mode policy enforces the cap; the index itself
// does not reject inserts past it — callers stop calling Add).
func New(dimension, capacity int) *Index {
	g := hnsw.NewGraph[int64]()
	g.Distance = hnsw.EuclideanDistance
	return &Index{graph: g, dimension: dimension, capacity: capacity}
}

// Dimension reports the vector width this index was constructed for.
func (idx *Index) Dimension() int { return idx.dimension }

// Capacity reports the configured maximum entry count.
func (idx *Index) Capacity() int { return idx.capacity }

// Add inserts a (chunk id, vector) pair. A vector whose length does not
// match the index's dimension is rejected with a diagnostic error and
// not added; callers are expected to log and continue rather than abort.
func (idx *Index) Add(id int64, vector []float32) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("ann: vector length %d != dimension %d", len(vector), idx.dimension)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.graph.Add(hnsw.MakeNode(id, vector))
	idx.count++
	return nil
}

// Search returns up to k chunk ids ordered nearest-first.
func (idx *Index) Search(query []float32, k int) ([]int64, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("ann: query length %d != dimension %d", len(query), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph.Len() == 0 {
		return nil, nil
	}

	nodes := idx.graph.Search(query, k)
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.Key
	}
	return ids, nil
}

// Count returns the number of entries added (including soft-deleted
// ones tolerated by the graph; there is no delete operation).
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}

// metaFile persists the fields Save/Load need beyond the raw graph
// bytes.
type metaFile struct {
	Dimension int
	Capacity  int
	Count     int
}

// Save persists the index via an atomic temp-file-then-rename, following
// the teacher's HNSWStore.Save idiom.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("ann: create %s: %w", tmp, err)
	}
	if err := idx.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("ann: export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ann: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ann: rename %s: %w", tmp, err)
	}

	metaTmp := path + ".meta.tmp"
	mf, err := os.Create(metaTmp)
	if err != nil {
		return fmt.Errorf("ann: create %s: %w", metaTmp, err)
	}
	meta := metaFile{Dimension: idx.dimension, Capacity: idx.capacity, Count: idx.count}
	if err := gob.NewEncoder(mf).Encode(meta); err != nil {
		mf.Close()
		os.Remove(metaTmp)
		return fmt.Errorf("ann: encode metadata: %w", err)
	}
	if err := mf.Close(); err != nil {
		os.Remove(metaTmp)
		return fmt.Errorf("ann: close %s: %w", metaTmp, err)
	}
	return os.Rename(metaTmp, path+".meta")
}

// Load restores an index previously written by Save.
func Load(path string) (*Index, error) {
	mf, err := os.Open(path + ".meta")
	if err != nil {
		return nil, fmt.Errorf("ann: open metadata: %w", err)
	}
	defer mf.Close()

	var meta metaFile
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return nil, fmt.Errorf("ann: decode metadata: %w", err)
	}

	idx := New(meta.Dimension, meta.Capacity)
	idx.count = meta.Count

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ann: open %s: %w", path, err)
	}
	defer f.Close()

	if err := idx.graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("ann: import graph: %w", err)
	}
	return idx, nil
}
