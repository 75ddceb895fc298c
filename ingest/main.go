// Command ingest builds the vector index used by legisqa.
//
//	go run ./ingest -pdf 'documentos/**/*.pdf' -persist Vector_DB_directory
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"legisqa/config"
	"legisqa/llm/ingest"
	"legisqa/llm/providers"
	"legisqa/llm/vector"

	"github.com/joho/godotenv"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	cfg := config.Load()

	source := flag.String("pdf", "documentos/L14133.pdf", "source document path or glob (pdf, txt, md, html, docx)")
	persist := flag.String("persist", cfg.VectorDBDir, "directory of the local vector index")
	embedModel := flag.String("model", cfg.EmbeddingModel, "embedding model id")
	chunkSize := flag.Int("chunk-size", cfg.ChunkSize, "maximum segment length in characters")
	chunkOverlap := flag.Int("chunk-overlap", cfg.ChunkOverlap, "characters shared by consecutive segments")
	flag.Parse()

	cfg.VectorDBDir = *persist
	cfg.ChunkSize = *chunkSize
	cfg.ChunkOverlap = *chunkOverlap

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.ValidateIndex(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	patterns := append([]string{*source}, flag.Args()...)
	if err := run(ctx, cfg, *embedModel, patterns, log); err != nil {
		log.Error("ingestion failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, embedModel string, patterns []string, log *slog.Logger) error {
	embedder, err := providers.CreateEmbeddingModel(ctx, cfg, embedModel)
	if err != nil {
		return fmt.Errorf("create embedding model: %w", err)
	}

	store, err := vector.Open(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer store.Close()

	pipeline, err := ingest.NewPipeline(store, vector.NewChunkConfig(cfg.ChunkSize, cfg.ChunkOverlap), log, os.Stdout)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, patterns...)
	if err != nil {
		return err
	}
	log.Info("ingestion finished", "sources", res.Sources, "segments", res.Segments)
	return nil
}
