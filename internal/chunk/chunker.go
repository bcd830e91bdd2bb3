// Package chunk splits file text into overlapping line windows, the unit
// of indexing and retrieval.
package chunk

import "strings"

// Chunk is a contiguous line window of a source file: 1-based inclusive
// start/end line numbers and the text covering them.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// DefaultSize and DefaultOverlap are the worker's default chunking
// parameters (spec.md §4.H step 3).
const (
	DefaultSize    = 100
	DefaultOverlap = 10
)

// Split windows content into chunks of up to size lines, advancing by
// size-overlap lines between windows so consecutive chunks share exactly
// overlap lines (except possibly the final pair, when the line count
// does not divide evenly). Empty content yields zero chunks; content
// with fewer lines than size yields exactly one chunk covering all
// lines. Panics if overlap is not in [0, size).
func Split(content string, size, overlap int) []Chunk {
	if overlap < 0 || overlap >= size {
		panic("chunk: overlap must satisfy 0 <= overlap < size")
	}
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	// strings.Split on content with a trailing newline produces a
	// trailing empty element representing no additional line; drop it
	// so line numbers match what a reader would count.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	n := len(lines)
	if n == 0 {
		return nil
	}

	step := size - overlap
	var chunks []Chunk
	for start := 0; start < n; start += step {
		end := start + size
		if end > n {
			end = n
		}
		text := strings.Join(lines[start:end], "\n") + "\n"
		chunks = append(chunks, Chunk{Text: text, Start: start + 1, End: end})
		if end == n {
			break
		}
	}
	return chunks
}
