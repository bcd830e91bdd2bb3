package embed

import (
	"context"
	"math"

	"github.com/kestr-dev/kestr/internal/hasher"
)

// staticDimension matches the teacher's offline/static fallback width.
const staticDimension = 256

// staticEmbedder produces a deterministic, content-derived vector with
// no network dependency. Selected with embedding_backend "static" and
// used in tests.
type staticEmbedder struct{}

func newStatic(Config) Embedder { return staticEmbedder{} }

func (staticEmbedder) Dimension() int { return staticDimension }
func (staticEmbedder) Close() error   { return nil }

func (staticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, staticDimension), nil
	}

	seed := hasher.Bytes([]byte(text))
	v := make([]float32, staticDimension)
	for i := range v {
		b := seed[(i*2)%len(seed) : (i*2)%len(seed)+2]
		var n int
		for _, c := range b {
			n = n*16 + hexVal(byte(c))
		}
		v[i] = float32(n)/255.0 - 0.5
	}
	normalize(v)
	return v, nil
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return 0
	}
}

func normalize(v []float32) {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
