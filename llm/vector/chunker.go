package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
)

// ErrInvalidChunkConfig is returned when the overlap is negative or not
// smaller than the chunk size.
var ErrInvalidChunkConfig = errors.New("chunk overlap must be non-negative and smaller than chunk size")

// ChunkConfig configures how documents are split into chunks
type ChunkConfig struct {
	ChunkSize    int    // Maximum chunk size in runes
	ChunkOverlap int    // Runes shared by consecutive chunks
	Separator    string // Preferred cut point
}

// NewChunkConfig returns a configuration that prefers newline cut points.
func NewChunkConfig(size, overlap int) ChunkConfig {
	return ChunkConfig{ChunkSize: size, ChunkOverlap: overlap, Separator: "\n"}
}

// Validate reports whether the configuration can make progress.
func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkConfig, c.ChunkSize, c.ChunkOverlap)
	}
	return nil
}

// Chunk represents a text chunk with metadata
type Chunk struct {
	Content    string
	ChunkIndex int
}

// ChunkDocument splits content into segments of at most ChunkSize runes.
//
// A segment ends right after the last separator inside the size window when
// that separator lies past the overlap region, otherwise it is cut hard at
// ChunkSize. The next segment starts exactly ChunkOverlap runes before the
// previous one ended, so consecutive segments share ChunkOverlap runes and
// the segments, with overlaps removed, reproduce content exactly.
func ChunkDocument(content string, config ChunkConfig) ([]Chunk, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return []Chunk{}, nil
	}

	sep := []rune(config.Separator)
	runes := []rune(content)
	size, overlap := config.ChunkSize, config.ChunkOverlap

	var chunks []Chunk
	start := 0
	for {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSeparatorEnd(runes[start:end], sep); cut > overlap {
			end = start + cut
		}

		chunks = append(chunks, Chunk{
			Content:    string(runes[start:end]),
			ChunkIndex: len(chunks),
		})

		if end == len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks, nil
}

// lastSeparatorEnd returns the offset just past the last occurrence of sep in
// window, or -1 when sep is empty or absent.
func lastSeparatorEnd(window, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(window) {
		return -1
	}
	for i := len(window) - len(sep); i >= 0; i-- {
		if runesEqual(window[i:i+len(sep)], sep) {
			return i + len(sep)
		}
	}
	return -1
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Splitter exposes ChunkDocument as an eino document transformer. Each input
// document becomes one output document per chunk; metadata is copied and
// extended with chunk_index and chunk_count.
type Splitter struct {
	config ChunkConfig
}

var _ document.Transformer = (*Splitter)(nil)

// NewSplitter validates config and returns a Splitter.
func NewSplitter(config ChunkConfig) (*Splitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{config: config}, nil
}

// Transform splits every source document into chunk documents.
func (s *Splitter) Transform(ctx context.Context, src []*schema.Document, opts ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range src {
		chunks, err := ChunkDocument(doc.Content, s.config)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			meta := make(map[string]any, len(doc.MetaData)+2)
			for k, v := range doc.MetaData {
				meta[k] = v
			}
			meta[MetaChunkIndex] = c.ChunkIndex
			meta[MetaChunkCount] = len(chunks)

			out = append(out, &schema.Document{
				ID:       fmt.Sprintf("%s#%d", doc.ID, c.ChunkIndex),
				Content:  c.Content,
				MetaData: meta,
			})
		}
	}
	return out, nil
}

// Metadata keys shared between the splitter, the indexer and the stores.
const (
	MetaSource     = "source"
	MetaFileType   = "file_type"
	MetaTitle      = "title"
	MetaChunkIndex = "chunk_index"
	MetaChunkCount = "chunk_count"
)
