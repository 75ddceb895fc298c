package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
)

// ErrEmptyEmbedding is returned when the embedding model answers with no vector.
var ErrEmptyEmbedding = errors.New("empty embedding returned")

// maxEmbedBatch bounds the number of texts sent to the model per request.
const maxEmbedBatch = 64

// EmbeddingService wraps an embedding model for vector generation
type EmbeddingService struct {
	embedder embedding.Embedder
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(embedder embedding.Embedder) *EmbeddingService {
	return &EmbeddingService{embedder: embedder}
}

// Embed generates an embedding vector for a single text
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}

	return toFloat32(vectors[0]), nil
}

// EmbedBatch generates embedding vectors for multiple texts, at most
// maxEmbedBatch per model request. Empty texts get a nil vector at their
// position. Either every vector is returned or none is.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	var validTexts []string
	var indices []int
	for i, text := range texts {
		if text != "" {
			validTexts = append(validTexts, text)
			indices = append(indices, i)
		}
	}
	if len(validTexts) == 0 {
		return nil, fmt.Errorf("no valid texts to embed")
	}

	result := make([][]float32, len(texts))
	for start := 0; start < len(validTexts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(validTexts))
		vectors, err := s.embedder.EmbedStrings(ctx, validTexts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedding model returned %d vectors for %d texts", len(vectors), end-start)
		}
		for i, vec := range vectors {
			if len(vec) == 0 {
				return nil, ErrEmptyEmbedding
			}
			result[indices[start+i]] = toFloat32(vec)
		}
	}

	return result, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
