package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"legisqa/config"
	"legisqa/llm/agent"
	"legisqa/llm/providers"
	"legisqa/llm/tracing"
	"legisqa/llm/vector"
	"legisqa/pubsub"
	"legisqa/tui/console"
	"legisqa/tui/renderer"
	"legisqa/tui/spinner"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, log)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("legisqa stopped", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	closeTracing, err := tracing.Setup(cfg, log)
	if err != nil {
		return err
	}
	defer closeTracing(context.Background())

	chatModel, err := providers.CreateChatModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create chat model: %w", err)
	}
	embedder, err := providers.CreateEmbeddingModel(ctx, cfg, "")
	if err != nil {
		return fmt.Errorf("create embedding model: %w", err)
	}

	store, err := vector.Open(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}
	defer store.Close()

	if n, err := store.Count(ctx); err != nil {
		log.Warn("could not count indexed segments", "error", err)
	} else if n == 0 {
		log.Warn("vector index is empty, run the ingest command first", "backend", cfg.VectorBackend)
	} else {
		log.Info("vector index opened", "backend", cfg.VectorBackend, "segments", n)
	}

	render, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	diagnostics := render.DiagnosticWriter(os.Stdout)

	classifier, err := agent.NewClassifier(&agent.ClassifierConfig{
		ChatModel:   chatModel,
		Diagnostics: diagnostics,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	legislation, err := agent.NewLegislationAnswerer(&agent.LegislationConfig{
		ChatModel:   chatModel,
		Retriever:   vector.NewRetriever(store, cfg.RetrieverTopK),
		TopK:        cfg.RetrieverTopK,
		Diagnostics: diagnostics,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	generic, err := agent.NewGenericAnswerer(chatModel)
	if err != nil {
		return err
	}
	router, err := agent.NewRouter(ctx, &agent.RouterConfig{
		Classifier:  classifier,
		Legislation: legislation,
		Generic:     generic,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	broker := pubsub.NewBroker[pubsub.TurnEvent]()
	journalDone := pubsub.Journal(ctx, broker, log)
	defer func() {
		broker.Shutdown()
		<-journalDone
	}()

	loop := &console.Loop{
		In:       os.Stdin,
		Out:      os.Stdout,
		Router:   router,
		Events:   broker,
		Logger:   log,
		Renderer: render,
	}
	if cfg.ShowSpinner {
		loop.Spinner = func(ctx context.Context, fn func() error) error {
			return spinner.Run(ctx, os.Stderr, "Pensando...", fn)
		}
	}
	return loop.Run(ctx)
}

func newRenderer(cfg config.Config) (*renderer.Renderer, error) {
	style := ""
	if cfg.RenderMarkdown {
		style = "dracula"
	}
	r, err := renderer.New(renderer.DefaultStyles(), style)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return r, nil
}
