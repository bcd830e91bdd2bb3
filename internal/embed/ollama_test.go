package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kestr-dev/kestr/internal/resilience"
)

func newTestBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker("test", resilience.WithMaxFailures(2), resilience.WithResetTimeout(time.Hour))
}

func TestOllamaEmbedReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float32{1, 2, 3}})
	}))
	defer srv.Close()

	e, err := newOllama(Config{Endpoint: srv.URL, Model: "test"})
	require.NoError(t, err)
	require.Equal(t, 3, e.Dimension())
}

func TestOllamaEmbedRetriesTransientFailureThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ollamaResponse{Embedding: []float32{1, 2}})
	}))
	defer srv.Close()

	e := &ollamaEmbedder{endpoint: srv.URL, model: "test", client: srv.Client(),
		breaker: newTestBreaker()}

	v, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, v)
	require.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestOllamaEmbedReturnsNilVectorWhenBackendDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := &ollamaEmbedder{endpoint: srv.URL, model: "test", client: srv.Client(),
		breaker: newTestBreaker()}

	v, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestOllamaEmbedShortCircuitsWhenBreakerOpen(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := &ollamaEmbedder{endpoint: srv.URL, model: "test", client: srv.Client(),
		breaker: newTestBreaker()}

	for i := 0; i < 10; i++ {
		_, _ = e.Embed(context.Background(), "hello")
	}
	seenAfterOpen := calls.Load()

	_, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, seenAfterOpen, calls.Load(), "breaker should have stopped issuing requests")
}
