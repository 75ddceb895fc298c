package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"legisqa/llm"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	// hash fields
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldSource     = "source"
	fieldFileType   = "file_type"
	fieldTitle      = "title"
	fieldChunkIndex = "chunk_index"
	fieldCreatedAt  = "created_at"
	fieldMetadata   = "metadata"
	fieldScore      = "score"

	keyPrefix = "seg:"

	// sourcePage is the FT.SEARCH page size used to list a source's keys.
	sourcePage = 1000
	maxTopK    = 100
)

// redisConn is the part of a Redis connection the store talks to. Exec runs
// cmds inside one MULTI/EXEC transaction.
type redisConn interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
	Exec(ctx context.Context, cmds [][]interface{}) error
	Close() error
}

type clientConn struct {
	*redis.Client
}

func (c clientConn) Exec(ctx context.Context, cmds [][]interface{}) error {
	if len(cmds) == 0 {
		return nil
	}
	_, err := c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, args := range cmds {
			p.Do(ctx, args...)
		}
		return nil
	})
	return err
}

// RedisStore keeps segments as hashes under seg:<id> and searches them
// through a RediSearch HNSW index.
type RedisStore struct {
	conn         redisConn
	embeddingSvc *EmbeddingService
	indexName    string
	dim          int
}

var _ VectorStore = (*RedisStore)(nil)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	PoolSize       int
	IndexName      string
	VectorDim      int
	EFConstruction int
	M              int
}

// NewRedisStore connects to Redis and makes sure the HNSW index exists.
func NewRedisStore(ctx context.Context, embedder embedding.Embedder, cfg RedisConfig) (*RedisStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if cfg.EFConstruction <= 0 {
		cfg.EFConstruction = defaultEFConstruction
	}
	if cfg.M <= 0 {
		cfg.M = defaultM
	}

	// RESP2 keeps FT.SEARCH replies as flat arrays.
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
		Protocol: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	store := newRedisStore(clientConn{client}, embedder, cfg.IndexName, cfg.VectorDim)
	if err := store.ensureIndex(ctx, cfg.EFConstruction, cfg.M); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}
	return store, nil
}

func newRedisStore(conn redisConn, embedder embedding.Embedder, indexName string, dim int) *RedisStore {
	return &RedisStore{
		conn:         conn,
		embeddingSvc: NewEmbeddingService(embedder),
		indexName:    indexName,
		dim:          dim,
	}
}

func (s *RedisStore) ensureIndex(ctx context.Context, ef, m int) error {
	if _, err := s.conn.Do(ctx, "FT.INFO", s.indexName).Result(); err == nil {
		return nil
	}

	_, err := s.conn.Do(ctx, "FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", keyPrefix,
		"SCHEMA",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.dim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(ef),
		"M", strconv.Itoa(m),
		fieldContent, "TEXT",
		fieldSource, "TAG", "SEPARATOR", "|",
		fieldFileType, "TAG",
		fieldTitle, "TEXT",
		fieldChunkIndex, "NUMERIC",
		fieldCreatedAt, "NUMERIC",
	).Result()
	if err != nil {
		return fmt.Errorf("FT.CREATE %s: %w", s.indexName, err)
	}
	return nil
}

// hsetCommands embeds docs and returns one HSET per document. Nothing is
// written to Redis.
func (s *RedisStore) hsetCommands(ctx context.Context, docs []llm.Document) ([][]interface{}, []string, error) {
	if len(docs) == 0 {
		return nil, nil, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embeddingSvc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().Unix()
	cmds := make([][]interface{}, 0, len(docs))
	keys := make([]string, 0, len(docs))
	for i, doc := range docs {
		if vectors[i] == nil {
			continue
		}
		if len(vectors[i]) != s.dim {
			return nil, nil, fmt.Errorf("embedding has %d dimensions, index %s expects %d (set VECTOR_DIM)", len(vectors[i]), s.indexName, s.dim)
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode metadata of %s: %w", doc.ID, err)
		}

		key := keyPrefix + doc.ID
		keys = append(keys, key)
		cmds = append(cmds, []interface{}{"HSET", key,
			fieldContent, doc.Content,
			fieldVector, encodeVector(vectors[i]),
			fieldSource, doc.Source,
			fieldFileType, doc.FileType,
			fieldTitle, doc.Title,
			fieldChunkIndex, doc.ChunkIndex,
			fieldCreatedAt, now,
			fieldMetadata, meta,
		})
	}
	return cmds, keys, nil
}

// AddBatch embeds docs and writes them in one transaction.
func (s *RedisStore) AddBatch(ctx context.Context, docs []llm.Document) error {
	cmds, _, err := s.hsetCommands(ctx, docs)
	if err != nil {
		return err
	}
	if err := s.conn.Exec(ctx, cmds); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// ReplaceSource embeds docs, then writes them and deletes the keys source
// held before in one transaction. A failed embedding leaves the index as it was.
func (s *RedisStore) ReplaceSource(ctx context.Context, source string, docs []llm.Document) error {
	if source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	cmds, written, err := s.hsetCommands(ctx, docs)
	if err != nil {
		return err
	}
	old, err := s.sourceKeys(ctx, source)
	if err != nil {
		return err
	}

	keep := make(map[string]bool, len(written))
	for _, k := range written {
		keep[k] = true
	}
	var stale []string
	for _, k := range old {
		if !keep[k] {
			stale = append(stale, k)
		}
	}
	cmds = append(cmds, delCommands(stale)...)

	if err := s.conn.Exec(ctx, cmds); err != nil {
		return fmt.Errorf("failed to replace documents of %s: %w", source, err)
	}
	return nil
}

// DeleteBySource removes all documents ingested from source.
func (s *RedisStore) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return fmt.Errorf("source cannot be empty")
	}
	keys, err := s.sourceKeys(ctx, source)
	if err != nil {
		return err
	}
	if err := s.conn.Exec(ctx, delCommands(keys)); err != nil {
		return fmt.Errorf("failed to delete documents of %s: %w", source, err)
	}
	return nil
}

// sourceKeys lists every key tagged with source, page by page.
func (s *RedisStore) sourceKeys(ctx context.Context, source string) ([]string, error) {
	var keys []string
	for offset := 0; ; offset += sourcePage {
		reply, err := s.conn.Do(ctx, "FT.SEARCH", s.indexName,
			fmt.Sprintf("@%s:{%s}", fieldSource, escapeTag(source)),
			"NOCONTENT",
			"LIMIT", strconv.Itoa(offset), strconv.Itoa(sourcePage),
			"DIALECT", "2",
		).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to look up documents of %s: %w", source, err)
		}

		values, ok := reply.([]interface{})
		if !ok || len(values) < 2 {
			return keys, nil
		}
		page := 0
		for _, v := range values[1:] {
			if key, ok := v.(string); ok {
				keys = append(keys, key)
				page++
			}
		}
		if page < sourcePage {
			return keys, nil
		}
	}
}

func delCommands(keys []string) [][]interface{} {
	var cmds [][]interface{}
	for start := 0; start < len(keys); start += sourcePage {
		end := min(start+sourcePage, len(keys))
		cmd := []interface{}{"DEL"}
		for _, k := range keys[start:end] {
			cmd = append(cmd, k)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

// encodeVector packs a vector as little-endian FLOAT32, the layout RediSearch expects.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// escapeTag escapes the characters RediSearch treats specially inside a TAG query.
func escapeTag(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case ',', '.', '<', '>', '{', '}', '[', ']', '"', '\'', ':', ';', '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '-', '+', '=', '~', '|', '/', '\\', ' ':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// knnQuery builds the FT.SEARCH arguments for a k-nearest-neighbour query.
func knnQuery(index string, vec []float32, topK int) []interface{} {
	return []interface{}{"FT.SEARCH", index,
		fmt.Sprintf("*=>[KNN %d @%s $query_vector AS %s]", topK, fieldVector, fieldScore),
		"PARAMS", "2", "query_vector", encodeVector(vec),
		"RETURN", "7", fieldContent, fieldSource, fieldFileType, fieldTitle, fieldChunkIndex, fieldMetadata, fieldScore,
		"SORTBY", fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	}
}

// Search performs a KNN query against the HNSW index.
func (s *RedisStore) Search(ctx context.Context, query string, topK int) ([]llm.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		topK = 4
	}
	topK = min(topK, maxTopK)

	vec, err := s.embeddingSvc.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	reply, err := s.conn.Do(ctx, knnQuery(s.indexName, vec, topK)...).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return parseSearchReply(reply)
}

// parseSearchReply decodes a RESP2 FT.SEARCH reply:
// [total, id1, [field, value, ...], id2, [...], ...].
func parseSearchReply(reply interface{}) ([]llm.SearchResult, error) {
	values, ok := reply.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected FT.SEARCH reply %T", reply)
	}

	results := []llm.SearchResult{}
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}
		doc, score := parseDocumentFields(strings.TrimPrefix(key, keyPrefix), fields)
		results = append(results, llm.SearchResult{Document: doc, Score: score})
	}
	return results, nil
}

// parseDocumentFields fills a Document from a flat field/value list. The
// returned score converts the COSINE distance into a similarity.
func parseDocumentFields(id string, fields []interface{}) (llm.Document, float32) {
	doc := llm.Document{
		ID:       id,
		Metadata: make(map[string]interface{}),
	}
	var score float32

	for i := 0; i+1 < len(fields); i += 2 {
		name, ok := fields[i].(string)
		if !ok {
			continue
		}
		val := fmt.Sprint(fields[i+1])

		switch name {
		case fieldContent:
			doc.Content = val
		case fieldSource:
			doc.Source = val
		case fieldFileType:
			doc.FileType = val
		case fieldTitle:
			doc.Title = val
		case fieldChunkIndex:
			doc.ChunkIndex, _ = strconv.Atoi(val)
		case fieldMetadata:
			_ = json.Unmarshal([]byte(val), &doc.Metadata)
		case fieldScore:
			if dist, err := strconv.ParseFloat(val, 64); err == nil {
				score = float32(1 - dist)
			}
		}
	}
	return doc, score
}

// Count returns the number of indexed segments.
func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	info, err := s.conn.Do(ctx, "FT.INFO", s.indexName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get index info: %w", err)
	}
	return numDocsFromInfo(info), nil
}

// numDocsFromInfo extracts num_docs from a RESP2 FT.INFO reply.
func numDocsFromInfo(info interface{}) int64 {
	values, ok := info.([]interface{})
	if !ok {
		return 0
	}
	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key == "num_docs" {
			switch v := values[i+1].(type) {
			case int64:
				return v
			case string:
				n, _ := strconv.ParseInt(v, 10, 64)
				return n
			}
		}
	}
	return 0
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.conn.Close()
}
