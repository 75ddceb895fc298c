package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// GenericAnswerer answers directly from the model, without retrieval.
type GenericAnswerer struct {
	model    model.BaseChatModel
	template prompt.ChatTemplate
}

func NewGenericAnswerer(chatModel model.BaseChatModel) (*GenericAnswerer, error) {
	if chatModel == nil {
		return nil, errors.New("generic answerer: chat model is required")
	}
	return &GenericAnswerer{
		model:    chatModel,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(GenericPrompt)),
	}, nil
}

func (a *GenericAnswerer) Answer(ctx context.Context, input string) (string, error) {
	msgs, err := a.template.Format(ctx, map[string]any{"input": input})
	if err != nil {
		return "", fmt.Errorf("format generic prompt: %w", err)
	}
	reply, err := a.model.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("answer general question: %w", err)
	}
	return reply.Content, nil
}
