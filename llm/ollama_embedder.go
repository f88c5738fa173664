package llm

import (
	"context"
	"fmt"
	"math"

	"github.com/ollama/ollama/api"
)

// OllamaEmbedder produces embeddings through a local Ollama instance.
// Vectors are L2-normalized so dot products are cosine similarities.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

// NewOllamaEmbedder connects using OLLAMA_HOST (or the default local address).
func NewOllamaEmbedder(model string) (*OllamaEmbedder, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("error creating ollama client: %w", err)
	}
	return &OllamaEmbedder{client: client, model: model}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("error embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return Normalize(resp.Embeddings[0]), nil
}

// Normalize scales a vector to unit length. Zero vectors pass through.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
