package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"legisqa/llm"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
)

const (
	indexFileName = "index.json"
	indexVersion  = "1"
)

// indexFile is the on-disk layout of a LocalStore directory.
type indexFile struct {
	Version   string         `json:"version"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Documents []llm.Document `json:"documents"`
}

// LocalStore is a directory-backed vector index. All entries live in memory
// and are rewritten to <dir>/index.json after every mutation.
type LocalStore struct {
	dir          string
	embeddingSvc *EmbeddingService

	mu        sync.RWMutex
	documents []llm.Document
	createdAt time.Time
}

var _ VectorStore = (*LocalStore)(nil)

// OpenLocalStore opens (creating if needed) the index stored in dir.
func OpenLocalStore(dir string, embedder embedding.Embedder) (*LocalStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	s := &LocalStore{
		dir:          dir,
		embeddingSvc: NewEmbeddingService(embedder),
		createdAt:    time.Now(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) path() string {
	return filepath.Join(s.dir, indexFileName)
}

func (s *LocalStore) load() error {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index file: %w", err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse index file %s: %w", s.path(), err)
	}
	s.documents = f.Documents
	if t, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
		s.createdAt = t
	}
	return nil
}

// save writes docs through a temp file so a crash never leaves a truncated
// index.json behind. Callers hold s.mu and assign docs only once save succeeds.
func (s *LocalStore) save(docs []llm.Document) error {
	f := indexFile{
		Version:   indexVersion,
		CreatedAt: s.createdAt.Format(time.RFC3339),
		UpdatedAt: time.Now().Format(time.RFC3339),
		Documents: docs,
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, indexFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// embed returns docs with their vectors, IDs and timestamps filled in.
// Documents with empty content are dropped.
func (s *LocalStore) embed(ctx context.Context, docs []llm.Document) ([]llm.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	now := time.Now().Format(time.RFC3339)
	out := make([]llm.Document, 0, len(docs))
	for i, doc := range docs {
		if vectors[i] == nil {
			continue
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.CreatedAt == "" {
			doc.CreatedAt = now
		}
		doc.Vector = vectors[i]
		out = append(out, doc)
	}
	return out, nil
}

// commit saves next and makes it the in-memory index. Callers hold s.mu.
func (s *LocalStore) commit(next []llm.Document) error {
	if err := s.save(next); err != nil {
		return err
	}
	s.documents = next
	return nil
}

// withoutSource returns a new slice holding every document not from source.
func (s *LocalStore) withoutSource(source string, extra int) []llm.Document {
	next := make([]llm.Document, 0, len(s.documents)+extra)
	for _, doc := range s.documents {
		if doc.Source != source {
			next = append(next, doc)
		}
	}
	return next
}

// AddBatch embeds docs and appends them to the index.
func (s *LocalStore) AddBatch(ctx context.Context, docs []llm.Document) error {
	entries, err := s.embed(ctx, docs)
	if err != nil || len(entries) == 0 {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]llm.Document, 0, len(s.documents)+len(entries))
	next = append(next, s.documents...)
	return s.commit(append(next, entries...))
}

// ReplaceSource embeds docs and, under one lock and one save, swaps them in
// for the documents previously stored from source.
func (s *LocalStore) ReplaceSource(ctx context.Context, source string, docs []llm.Document) error {
	if source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	entries, err := s.embed(ctx, docs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.withoutSource(source, len(entries))
	return s.commit(append(next, entries...))
}

// Search ranks every stored document by cosine similarity to the query.
func (s *LocalStore) Search(ctx context.Context, query string, topK int) ([]llm.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 4
	}

	s.mu.RLock()
	empty := len(s.documents) == 0
	s.mu.RUnlock()
	if empty {
		return []llm.SearchResult{}, nil
	}

	queryVector, err := s.embeddingSvc.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]llm.SearchResult, 0, len(s.documents))
	for _, doc := range s.documents {
		results = append(results, llm.SearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryVector, doc.Vector),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

// DeleteBySource removes all documents ingested from source.
func (s *LocalStore) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return fmt.Errorf("source cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.withoutSource(source, 0)
	if len(next) == len(s.documents) {
		return nil
	}
	return s.commit(next)
}

// Count returns the number of stored documents.
func (s *LocalStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.documents)), nil
}

// Close is a no-op; every mutation is already on disk.
func (s *LocalStore) Close() error {
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
