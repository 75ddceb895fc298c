package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Supported chat model providers.
const (
	ProviderOpenAI = "openai"
	ProviderQwen   = "qwen"
	ProviderGemini = "gemini"
)

// Supported vector index backends.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Config is the process configuration read from the environment.
// Call godotenv.Load before Load so a local .env file is honored.
type Config struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	QwenAPIKey  string
	QwenBaseURL string
	QwenModel   string

	GeminiAPIKey string
	GeminiModel  string

	EmbeddingAPIKey  string
	EmbeddingBaseURL string
	EmbeddingModel   string

	VectorBackend string
	VectorDBDir   string
	RetrieverTopK int

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisIndexName string
	VectorDim      int

	ChunkSize    int
	ChunkOverlap int

	LogLevel       slog.Level
	RenderMarkdown bool
	ShowSpinner    bool

	CozeloopAPIToken    string
	CozeloopWorkspaceID string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() Config {
	openAIKey := os.Getenv("OPENAI_API_KEY")

	cfg := Config{
		Provider: strings.ToLower(envOr("LLM_PROVIDER", ProviderOpenAI)),

		OpenAIAPIKey:  openAIKey,
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   envOr("OPENAI_MODEL", "gpt-4o-mini"),

		QwenAPIKey:  os.Getenv("DASHSCOPE_API_KEY"),
		QwenBaseURL: envOr("QWEN_BASE_URL", "https://dashscope.aliyuncs.com/compatible-mode/v1"),
		QwenModel:   envOr("QWEN_MODEL", "qwen-plus"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		EmbeddingAPIKey:  envOr("EMBEDDING_API_KEY", openAIKey),
		EmbeddingBaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingModel:   envOr("EMBEDDING_MODEL", "text-embedding-3-small"),

		VectorBackend: strings.ToLower(envOr("VECTOR_BACKEND", BackendLocal)),
		VectorDBDir:   envOr("VECTOR_DB_DIR", "Vector_DB_directory"),
		RetrieverTopK: envInt("RETRIEVER_TOP_K", 4),

		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		RedisIndexName: envOr("VECTOR_INDEX_NAME", "legisqa-segments"),
		VectorDim:      envInt("VECTOR_DIM", 1536),

		ChunkSize:    envInt("CHUNK_SIZE", 1250),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 100),

		LogLevel:       envLevel("LOG_LEVEL", slog.LevelWarn),
		RenderMarkdown: envBool("RENDER_MARKDOWN", false),
		ShowSpinner:    envBool("SHOW_SPINNER", false),

		CozeloopAPIToken:    os.Getenv("COZELOOP_API_TOKEN"),
		CozeloopWorkspaceID: os.Getenv("COZELOOP_WORKSPACE_ID"),
	}

	if cfg.RetrieverTopK <= 0 {
		cfg.RetrieverTopK = 4
	}
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = 1536
	}

	return cfg
}

// Validate checks that the credential for the selected provider is present
// and that the remaining settings are usable.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY was not found in the environment or .env file")
		}
	case ProviderQwen:
		if c.QwenAPIKey == "" {
			return fmt.Errorf("DASHSCOPE_API_KEY was not found in the environment or .env file")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY was not found in the environment or .env file")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want openai, qwen or gemini)", c.Provider)
	}

	return c.ValidateIndex()
}

// ValidateIndex checks only the settings needed to open the vector index and
// embed text. The ingestion command uses it since it never talks to a chat model.
func (c Config) ValidateIndex() error {
	if c.EmbeddingAPIKey == "" {
		return fmt.Errorf("EMBEDDING_API_KEY (or OPENAI_API_KEY) is required for embeddings")
	}
	switch c.VectorBackend {
	case BackendLocal:
		if c.VectorDBDir == "" {
			return fmt.Errorf("VECTOR_DB_DIR cannot be empty")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR cannot be empty")
		}
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q (want local or redis)", c.VectorBackend)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d with CHUNK_SIZE %d", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
