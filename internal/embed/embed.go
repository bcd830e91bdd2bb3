// Package embed is the Embedder capability spec.md §1 treats as an
// external collaborator: embed(text) -> vector; dimension() -> usize.
// The core never re-dispatches per chunk; a concrete backend is selected
// once at startup from configuration (spec.md §9).
package embed

import (
	"context"
	"fmt"
)

// Embedder computes a fixed-width dense vector for a chunk of text.
type Embedder interface {
	// Embed returns the embedding for text. A backend that is
	// unreachable/misconfigured either returns an error or (the Ollama
	// backend) an empty vector with a nil error. An empty (zero-length)
	// vector with a nil error is a valid response meaning "no embedding
	// available"; callers store the chunk keyword-only in that case.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the vector width this embedder produces.
	Dimension() int
	// Close releases any network/process resources.
	Close() error
}

// Config selects and parameterizes a backend, mirroring the config.json
// keys in spec.md §6.
type Config struct {
	Backend   string // "ollama" | "onnx" | "openai" | "static"
	Model     string
	Endpoint  string
	OpenAIKey string
}

// New constructs the Embedder named by cfg.Backend. It is called exactly
// once at startup (spec.md §9: "do not re-dispatch per chunk").
func New(cfg Config) (Embedder, error) {
	switch cfg.Backend {
	case "", "ollama":
		return newOllama(cfg)
	case "onnx":
		return newONNX(cfg)
	case "openai":
		return newOpenAI(cfg)
	case "static":
		return newStatic(cfg), nil
	default:
		return nil, fmt.Errorf("embed: unknown backend %q", cfg.Backend)
	}
}
