package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kestr-dev/kestr/internal/resilience"
)

// ollamaEmbedder talks to a local Ollama server's /api/embeddings
// endpoint. Grounded on the teacher's internal/embed/ollama.go HTTP
// client/timeout/retry shape, trimmed to the single-request path the
// core's Embedder interface needs. A circuit breaker fails fast once
// Ollama has been down for a while rather than blocking every indexer
// commit on a fresh dial timeout (spec.md §7: embedding failures degrade
// to keyword-only storage, they must not stall the worker).
type ollamaEmbedder struct {
	endpoint string
	model    string
	client   *http.Client
	dim      int
	breaker  *resilience.CircuitBreaker
}

var ollamaRetryConfig = resilience.RetryConfig{
	MaxRetries:   2,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	Multiplier:   2.0,
	Jitter:       true,
}

const defaultOllamaEndpoint = "http://localhost:11434/api/embeddings"
const defaultOllamaModel = "all-minilm"
const ollamaRequestTimeout = 30 * time.Second

func newOllama(cfg Config) (Embedder, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	e := &ollamaEmbedder{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: ollamaRequestTimeout},
		breaker:  resilience.NewCircuitBreaker("embed.ollama", resilience.WithMaxFailures(5), resilience.WithResetTimeout(30*time.Second)),
	}

	// Probe dimension with a one-word ("ping") embed; a failure here is
	// non-fatal (spec.md §7: transient I/O is swallowed at the scope of
	// the affected component) — the embedder then reports dimension 0 for
	// its whole lifetime, since the probe is not repeated, which the
	// memory-mode policy treats as "nothing to load".
	if v, err := e.Embed(context.Background(), "ping"); err == nil {
		e.dim = len(v)
	}
	return e, nil
}

func (e *ollamaEmbedder) Dimension() int { return e.dim }
func (e *ollamaEmbedder) Close() error   { return nil }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !e.breaker.Allow() {
		return nil, nil
	}

	var result []float32
	err := resilience.Retry(ctx, ollamaRetryConfig, func() error {
		v, err := e.embedOnce(ctx, text)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		e.breaker.RecordFailure()
		return nil, nil
	}
	e.breaker.RecordSuccess()
	return result, nil
}

func (e *ollamaEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("embed: ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embed: ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: ollama: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: ollama: status %d", resp.StatusCode)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embed: ollama: decode response: %w", err)
	}
	return out.Embedding, nil
}
