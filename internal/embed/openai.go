package embed

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "text-embedding-3-small"
const openAIDimension = 1536

// openAIEmbedder calls the OpenAI embeddings endpoint, grounded on
// jinford-dev-rag's use of github.com/openai/openai-go/v3. The API key
// is taken from config.json's openai_key, overridable by the
// OPENAI_API_KEY environment variable per spec.md §6.
type openAIEmbedder struct {
	client *openai.Client
	model  string
}

func newOpenAI(cfg Config) (Embedder, error) {
	key := cfg.OpenAIKey
	if env := os.Getenv("OPENAI_API_KEY"); env != "" {
		key = env
	}
	if key == "" {
		return nil, fmt.Errorf("embed: openai backend requires an API key")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	client := openai.NewClient(option.WithAPIKey(key))
	return &openAIEmbedder{client: &client, model: model}, nil
}

func (e *openAIEmbedder) Dimension() int { return openAIDimension }
func (e *openAIEmbedder) Close() error   { return nil }

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: openai: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	embedding := resp.Data[0].Embedding
	v := make([]float32, len(embedding))
	for i, f := range embedding {
		v[i] = float32(f)
	}
	return v, nil
}
