package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"legisqa/llm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// ClassifierConfig holds dependencies for the Classifier.
type ClassifierConfig struct {
	ChatModel model.BaseChatModel
	// Diagnostics receives the "Tipo de questão" line. Optional.
	Diagnostics io.Writer
	Logger      *slog.Logger
}

// Classifier decides whether a question is about legislation.
type Classifier struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
	diag     io.Writer
	log      *slog.Logger
}

// NewClassifier creates a Classifier from config.
func NewClassifier(config *ClassifierConfig) (*Classifier, error) {
	if config == nil {
		return nil, errors.New("config is nil")
	}
	if config.ChatModel == nil {
		return nil, errors.New("classifier: chat model is required")
	}
	return &Classifier{
		model:    config.ChatModel,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(ClassifyPrompt)),
		diag:     orDiscard(config.Diagnostics),
		log:      orNopLogger(config.Logger),
	}, nil
}

// Classify asks the model for a label and maps it to a Decision. The second
// return value is the normalized reply, kept for reporting when it maps to
// DecisionUnrecognized.
func (c *Classifier) Classify(ctx context.Context, input string) (llm.Decision, string, error) {
	msgs, err := c.template.Format(ctx, map[string]any{"input": input})
	if err != nil {
		return llm.DecisionUnrecognized, "", fmt.Errorf("format classify prompt: %w", err)
	}

	reply, err := c.model.Generate(ctx, msgs)
	if err != nil {
		return llm.DecisionUnrecognized, "", fmt.Errorf("classify question: %w", err)
	}

	decision, label := llm.ParseDecision(reply.Content)
	fmt.Fprintln(c.diag, "Tipo de questão: "+label)
	c.log.Debug("question classified", "decision", decision.String(), "label", label)
	return decision, label, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func orNopLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}
