package vector

import (
	"context"
	"fmt"

	"legisqa/config"
	"legisqa/llm"

	"github.com/cloudwego/eino/components/embedding"
)

// VectorStore defines the interface for vector storage operations
type VectorStore interface {
	// AddBatch embeds and stores documents in a single operation
	AddBatch(ctx context.Context, docs []llm.Document) error

	// Search performs semantic search and returns top-k results, best first
	Search(ctx context.Context, query string, topK int) ([]llm.SearchResult, error)

	// ReplaceSource embeds docs and swaps them in for every document
	// previously stored from source. On error the store is unchanged.
	ReplaceSource(ctx context.Context, source string, docs []llm.Document) error

	// DeleteBySource removes all documents from a specific source file
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the total number of documents in the store
	Count(ctx context.Context) (int64, error)

	// Close releases connections and file handles
	Close() error
}

// Open returns the vector index selected by cfg.VectorBackend. The caller
// owns the returned handle and must Close it.
func Open(ctx context.Context, cfg config.Config, embedder embedding.Embedder) (VectorStore, error) {
	switch cfg.VectorBackend {
	case config.BackendLocal:
		return OpenLocalStore(cfg.VectorDBDir, embedder)
	case config.BackendRedis:
		return NewRedisStore(ctx, embedder, RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			PoolSize:  4,
			IndexName: cfg.RedisIndexName,
			VectorDim: cfg.VectorDim,
		})
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
