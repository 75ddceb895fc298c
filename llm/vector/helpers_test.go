package vector

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
)

const fakeDim = 64

// hashEmbedder is a deterministic bag-of-words embedder: identical texts map
// to identical vectors, and texts sharing words point in similar directions.
type hashEmbedder struct {
	calls int
	err   error
}

func (e *hashEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec := make([]float64, fakeDim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(word))
			vec[h.Sum32()%fakeDim]++
		}
		out[i] = vec
	}
	return out, nil
}

var errEmbedderDown = errors.New("embedding service unreachable")
