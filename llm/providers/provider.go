package providers

import (
	"context"
	"fmt"

	"legisqa/config"

	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
)

// ChatModelConfig defines the configuration for creating a chat model.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewChatModel creates an OpenAI-compatible chat model from specific configuration.
// An empty BaseURL talks to api.openai.com.
func NewChatModel(ctx context.Context, cfg *ChatModelConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   modelName,
	})
}

// NewQwenModel creates a DashScope Qwen chat model.
func NewQwenModel(ctx context.Context, cfg *ChatModelConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
}

// CreateChatModel builds the chat model selected by cfg.Provider.
func CreateChatModel(ctx context.Context, cfg config.Config) (model.ToolCallingChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewChatModel(ctx, &ChatModelConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case config.ProviderQwen:
		return NewQwenModel(ctx, &ChatModelConfig{
			APIKey:  cfg.QwenAPIKey,
			BaseURL: cfg.QwenBaseURL,
			Model:   cfg.QwenModel,
		})
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// EmbeddingConfig defines the configuration for creating an embedding model.
type EmbeddingConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewEmbeddingModel creates an OpenAI-compatible embedding model from specific configuration.
func NewEmbeddingModel(ctx context.Context, cfg *EmbeddingConfig) (einoEmbedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required in config")
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}

	return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   modelName,
	})
}

// CreateEmbeddingModel creates the embedder described by cfg. modelOverride,
// when non-empty, replaces cfg.EmbeddingModel.
func CreateEmbeddingModel(ctx context.Context, cfg config.Config, modelOverride string) (einoEmbedding.Embedder, error) {
	modelName := cfg.EmbeddingModel
	if modelOverride != "" {
		modelName = modelOverride
	}

	return NewEmbeddingModel(ctx, &EmbeddingConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   modelName,
	})
}
