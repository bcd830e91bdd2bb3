// Package memorymode implements the bootstrap-time decision about ANN
// residency (spec.md §4.K), evaluated once after the embedder is
// constructed. Grounded on original_source/src/engine/config.hpp's
// MemoryMode enum, the direct ancestor of this policy.
package memorymode

import (
	"log/slog"

	"github.com/kestr-dev/kestr/internal/ann"
	"github.com/kestr-dev/kestr/internal/store"
)

// Mode is the startup policy controlling how much of the vector corpus
// is resident in the ANN. Changing mode requires a restart; there is no
// live transition (spec.md §9).
type Mode string

const (
	RAM    Mode = "ram"
	Hybrid Mode = "hybrid"
	Disk   Mode = "disk"
)

// ramCapacity is the ANN capacity used in RAM mode.
const ramCapacity = 100_000

// Bootstrap evaluates the policy and returns the constructed index, or
// nil in DISK mode (semantic queries then short-circuit to the keyword
// fallback). Vectors whose length differs from dimension are dropped
// with a diagnostic — the operator's remedy is a full reindex after
// switching embedding backends.
func Bootstrap(mode Mode, hybridLimit, dimension int, s *store.Store) (*ann.Index, error) {
	if mode == Disk {
		return nil, nil
	}

	capacity := ramCapacity
	limit := -1
	if mode == Hybrid {
		limit = hybridLimit
	}

	idx := ann.New(dimension, capacity)
	inserted := 0
	err := s.ForEachVector(func(id int64, vector []float32) {
		if limit >= 0 && inserted >= limit {
			return
		}
		if len(vector) != dimension {
			slog.Warn("memorymode: dropping vector with mismatched dimension",
				"chunk_id", id, "got", len(vector), "want", dimension)
			return
		}
		if err := idx.Add(id, vector); err != nil {
			slog.Warn("memorymode: dropping vector", "chunk_id", id, "error", err)
			return
		}
		inserted++
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}
