// Package ingest builds the persistent vector index from source documents:
// extract text, segment it, embed the segments and persist them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"legisqa/llm/parser"
	"legisqa/llm/vector"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyDocument is returned for a source whose extracted text is blank.
var ErrEmptyDocument = errors.New("document has no extractable text")

// ErrNoSources is returned when the given patterns match no files.
var ErrNoSources = errors.New("no source documents matched")

// Result summarizes one ingestion run.
type Result struct {
	Sources  int
	Segments int
}

// Pipeline is the offline extract, segment, embed and persist step.
type Pipeline struct {
	registry *parser.Registry
	splitter document.Transformer
	indexer  indexer.Indexer
	log      *slog.Logger
	out      io.Writer
}

// NewPipeline wires a pipeline on top of store. Progress lines go to out.
func NewPipeline(store vector.VectorStore, chunkCfg vector.ChunkConfig, log *slog.Logger, out io.Writer) (*Pipeline, error) {
	splitter, err := vector.NewSplitter(chunkCfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		registry: parser.DefaultRegistry(),
		splitter: splitter,
		indexer:  vector.NewIndexer(store),
		log:      log,
		out:      out,
	}, nil
}

// Run ingests every file matched by patterns. Each pattern is a path or a
// doublestar glob. Entries previously stored for the same source are
// replaced, and a source that fails keeps its previous entries. Run stops at
// the first failing source.
func (p *Pipeline) Run(ctx context.Context, patterns ...string) (Result, error) {
	paths, err := ExpandPaths(patterns)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, path := range paths {
		n, err := p.IngestFile(ctx, path)
		if err != nil {
			return res, err
		}
		res.Sources++
		res.Segments += n
	}

	fmt.Fprintln(p.out, "Documents vectorized.")
	return res, nil
}

// IngestFile indexes one source file and returns the number of segments stored.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	log := p.log.With("source", path)

	parsed, err := p.registry.ParseFile(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	if strings.TrimSpace(parsed.Content) == "" {
		return 0, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	log.Info("parsed document", "title", parsed.Title, "runes", len([]rune(parsed.Content)))

	meta := make(map[string]any, len(parsed.Metadata)+3)
	for k, v := range parsed.Metadata {
		meta[k] = v
	}
	meta[vector.MetaSource] = path
	meta[vector.MetaFileType] = parser.FileTypeFromPath(path).String()
	meta[vector.MetaTitle] = parsed.Title

	segments, err := p.splitter.Transform(ctx, []*schema.Document{{
		ID:       path,
		Content:  parsed.Content,
		MetaData: meta,
	}})
	if err != nil {
		return 0, fmt.Errorf("segment %s: %w", path, err)
	}
	log.Info("segmented document", "segments", len(segments))

	// Every segment is embedded before the source's previous entries go away.
	if _, err := p.indexer.Store(ctx, segments, vector.WithReplaceSource(path)); err != nil {
		return 0, fmt.Errorf("index %s: %w", path, err)
	}

	fmt.Fprintf(p.out, "%s: %d segments\n", filepath.Base(path), len(segments))
	return len(segments), nil
}

// ExpandPaths resolves each pattern with doublestar and returns the matches
// in order, without duplicates.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%q: %w", pattern, ErrNoSources)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	return paths, nil
}
