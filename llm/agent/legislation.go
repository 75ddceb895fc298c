package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// DefaultTopK is the number of segments retrieved per legislation question.
const DefaultTopK = 4

// LegislationConfig holds dependencies for the LegislationAnswerer.
type LegislationConfig struct {
	ChatModel model.BaseChatModel
	Retriever retriever.Retriever
	TopK      int
	// Diagnostics receives the retrieved segments. Optional.
	Diagnostics io.Writer
	Logger      *slog.Logger
}

// LegislationAnswerer answers from the legislation index: it retrieves the
// segments closest to the framed question and stuffs them all into one
// context block.
type LegislationAnswerer struct {
	model     model.BaseChatModel
	retriever retriever.Retriever
	topK      int
	question  prompt.ChatTemplate
	answer    prompt.ChatTemplate
	diag      io.Writer
	log       *slog.Logger
}

// NewLegislationAnswerer creates a LegislationAnswerer from config.
func NewLegislationAnswerer(config *LegislationConfig) (*LegislationAnswerer, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}
	if config.ChatModel == nil {
		return nil, errors.New("legislation answerer: chat model is required")
	}
	if config.Retriever == nil {
		return nil, errors.New("legislation answerer: retriever is required")
	}
	topK := config.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &LegislationAnswerer{
		model:     config.ChatModel,
		retriever: config.Retriever,
		topK:      topK,
		question:  prompt.FromMessages(schema.FString, schema.UserMessage(LegislationPrompt)),
		answer: prompt.FromMessages(schema.FString,
			schema.SystemMessage(StuffSystemPrompt),
			schema.UserMessage("{question}"),
		),
		diag: orDiscard(config.Diagnostics),
		log:  orNopLogger(config.Logger),
	}, nil
}

// Answer retrieves supporting segments and returns the model's answer.
func (a *LegislationAnswerer) Answer(ctx context.Context, input string) (string, error) {
	framed, err := a.question.Format(ctx, map[string]any{"question": input})
	if err != nil {
		return "", fmt.Errorf("format legislation prompt: %w", err)
	}
	query := framed[0].Content

	docs, err := a.retriever.Retrieve(ctx, query, retriever.WithTopK(a.topK))
	if err != nil {
		return "", fmt.Errorf("retrieve segments: %w", err)
	}
	a.log.Debug("segments retrieved", "count", len(docs))

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	msgs, err := a.answer.Format(ctx, map[string]any{
		"context":  strings.Join(contents, "\n\n"),
		"question": query,
	})
	if err != nil {
		return "", fmt.Errorf("format answer prompt: %w", err)
	}

	reply, err := a.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answer legislation question: %w", err)
	}

	fmt.Fprintln(a.diag, "Documentos recuperados:")
	for _, c := range contents {
		fmt.Fprintln(a.diag, c)
	}
	return reply.Content, nil
}
