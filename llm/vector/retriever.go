package vector

import (
	"context"
	"fmt"
	"strconv"

	"legisqa/llm"

	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// Retriever adapts a VectorStore to eino's retriever.Retriever.
type Retriever struct {
	store VectorStore
	topK  int
}

var _ retriever.Retriever = (*Retriever)(nil)

// NewRetriever returns a retriever that asks store for topK segments by default.
func NewRetriever(store VectorStore, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{store: store, topK: topK}
}

// Retrieve returns the segments most similar to query, best first.
// retriever.WithTopK overrides the default.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &r.topK}, opts...)
	topK := r.topK
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}

	results, err := r.store.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	docs := make([]*schema.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, toSchemaDocument(res))
	}
	return docs, nil
}

func toSchemaDocument(res llm.SearchResult) *schema.Document {
	meta := make(map[string]any, len(res.Document.Metadata)+4)
	for k, v := range res.Document.Metadata {
		meta[k] = v
	}
	meta[MetaSource] = res.Document.Source
	meta[MetaFileType] = res.Document.FileType
	meta[MetaTitle] = res.Document.Title
	meta[MetaChunkIndex] = res.Document.ChunkIndex

	doc := &schema.Document{
		ID:       res.Document.ID,
		Content:  res.Document.Content,
		MetaData: meta,
	}
	return doc.WithScore(float64(res.Score))
}

// Indexer adapts a VectorStore to eino's indexer.Indexer. Documents produced
// by Splitter carry their source and chunk position in MetaData.
type Indexer struct {
	store VectorStore
}

var _ indexer.Indexer = (*Indexer)(nil)

// NewIndexer wraps store.
func NewIndexer(store VectorStore) *Indexer {
	return &Indexer{store: store}
}

type indexerOptions struct {
	replaceSource string
}

// WithReplaceSource makes Store swap docs in for every entry previously
// stored from source, in one step.
func WithReplaceSource(source string) indexer.Option {
	return indexer.WrapImplSpecificOptFn(func(o *indexerOptions) {
		o.replaceSource = source
	})
}

// Store embeds and persists docs, returning their IDs in input order.
func (ix *Indexer) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	o := indexer.GetImplSpecificOptions(&indexerOptions{}, opts...)
	if len(docs) == 0 && o.replaceSource == "" {
		return nil, nil
	}

	entries := make([]llm.Document, len(docs))
	for i, doc := range docs {
		entries[i] = fromSchemaDocument(doc)
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
	}

	if o.replaceSource != "" {
		if err := ix.store.ReplaceSource(ctx, o.replaceSource, entries); err != nil {
			return nil, fmt.Errorf("failed to replace %s: %w", o.replaceSource, err)
		}
	} else if err := ix.store.AddBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to store %d segments: %w", len(entries), err)
	}

	ids := make([]string, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	return ids, nil
}

func fromSchemaDocument(doc *schema.Document) llm.Document {
	meta := make(map[string]interface{}, len(doc.MetaData))
	for k, v := range doc.MetaData {
		meta[k] = v
	}

	entry := llm.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Source:   metaString(meta, MetaSource),
		FileType: metaString(meta, MetaFileType),
		Title:    metaString(meta, MetaTitle),
		Metadata: meta,
	}
	switch v := meta[MetaChunkIndex].(type) {
	case int:
		entry.ChunkIndex = v
	case string:
		entry.ChunkIndex, _ = strconv.Atoi(v)
	}
	return entry
}

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
