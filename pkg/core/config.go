package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Default values applied wherever configuration is left zero.
const (
	DefaultServerPort  = 8000
	DefaultTopK        = 5
	DefaultSearchLimit = 10
	DefaultStoragePath = "./knowledge_db"
)

// Config contains the complete configuration for a KnowledgeBase and the
// HTTP service around it.
//
// Example:
//
//	config := &core.Config{
//	    LLM: core.LLMConfig{
//	        Provider: "ollama",
//	        Model:    "llama3.1",
//	    },
//	    Embedder: core.EmbedderConfig{
//	        Provider: "ollama",
//	        Model:    "nomic-embed-text",
//	    },
//	    Storage: core.StorageConfig{
//	        Provider: "chromem",
//	        Path:     "./knowledge_db",
//	    },
//	}
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`

	// LLM contains generation provider configuration.
	LLM LLMConfig `json:"llm"`

	// Embedder contains embedding provider configuration.
	Embedder EmbedderConfig `json:"embedder"`

	// Storage contains vector store configuration.
	Storage StorageConfig `json:"storage"`

	// RAG contains retrieval configuration.
	RAG RAGConfig `json:"rag"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// Port is the listen port. Defaults to 8000.
	Port int `json:"port"`

	// Mode selects logging and router behavior: "dev" or "prod".
	Mode string `json:"mode"`
}

// LLMConfig contains configuration for the generation provider.
//
// Supported providers: ollama, openai.
type LLMConfig struct {
	// Provider is the generation provider name.
	Provider string `json:"provider"`

	// APIKey authenticates against the provider (openai, or an
	// authenticated remote Ollama).
	APIKey string `json:"api_key,omitempty"`

	// Model is the model name (e.g. "llama3.1", "gpt-4o-mini").
	Model string `json:"model"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `json:"base_url,omitempty"`
}

// EmbedderConfig contains configuration for the embedding provider.
//
// Supported providers: ollama, openai.
type EmbedderConfig struct {
	// Provider is the embedding provider name.
	Provider string `json:"provider"`

	// APIKey authenticates against the provider.
	APIKey string `json:"api_key,omitempty"`

	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string `json:"model"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `json:"base_url,omitempty"`

	// Dimensions is the embedding vector size. Defaults to the
	// provider's default model dimension.
	Dimensions int `json:"dimensions,omitempty"`
}

// StorageConfig contains configuration for the vector store.
//
// Supported providers: chromem, sqlite, postgres.
type StorageConfig struct {
	// Provider is the vector store backend name.
	Provider string `json:"provider"`

	// Path is the chromem database directory. Defaults to
	// "./knowledge_db".
	Path string `json:"path,omitempty"`

	// DBPath is the SQLite database file.
	DBPath string `json:"db_path,omitempty"`

	// DSN is the PostgreSQL connection string.
	DSN string `json:"dsn,omitempty"`
}

// RAGConfig contains configuration for the retrieval path.
type RAGConfig struct {
	// TopK is the number of documents retrieved to ground an answer.
	// Defaults to 5.
	TopK int `json:"top_k"`

	// SearchLimit is the default result count for raw search.
	// Defaults to 10.
	SearchLimit int `json:"search_limit"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - SERVER_PORT, SERVER_MODE
//   - LLM_PROVIDER (ollama, openai), LLM_API_KEY, LLM_MODEL, LLM_BASE_URL,
//     OLLAMA_BASE_URL
//   - EMBEDDING_PROVIDER (ollama, openai), EMBEDDING_API_KEY,
//     EMBEDDING_MODEL, EMBEDDING_BASE_URL, EMBEDDING_DIMS
//   - STORAGE_PROVIDER (chromem, sqlite, postgres), STORAGE_PATH,
//     SQLITE_PATH, POSTGRES_DSN
//   - RAG_TOP_K, SEARCH_LIMIT
//
// Returns a Config instance with defaults applied for anything unset.
func LoadConfigFromEnv() (*Config, error) {
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	llmProvider := getEnvOrDefault("LLM_PROVIDER", "ollama")
	var llmBaseURL, llmDefaultModel string
	switch llmProvider {
	case "ollama":
		llmBaseURL = getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")
		llmDefaultModel = "llama3.1"
	default:
		llmBaseURL = os.Getenv("LLM_BASE_URL")
		llmDefaultModel = "gpt-4o-mini"
	}

	embedderProvider := getEnvOrDefault("EMBEDDING_PROVIDER", "ollama")
	var embedderBaseURL, embedderDefaultModel string
	var embedderDefaultDims int
	switch embedderProvider {
	case "ollama":
		embedderBaseURL = getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434")
		embedderDefaultModel = "nomic-embed-text"
		embedderDefaultDims = 768
	default:
		embedderBaseURL = os.Getenv("EMBEDDING_BASE_URL")
		embedderDefaultModel = "text-embedding-ada-002"
		embedderDefaultDims = 1536
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefaultInt("SERVER_PORT", DefaultServerPort),
			Mode: getEnvOrDefault("SERVER_MODE", "dev"),
		},
		LLM: LLMConfig{
			Provider: llmProvider,
			APIKey:   os.Getenv("LLM_API_KEY"),
			Model:    getEnvOrDefault("LLM_MODEL", llmDefaultModel),
			BaseURL:  llmBaseURL,
		},
		Embedder: EmbedderConfig{
			Provider:   embedderProvider,
			APIKey:     os.Getenv("EMBEDDING_API_KEY"),
			Model:      getEnvOrDefault("EMBEDDING_MODEL", embedderDefaultModel),
			BaseURL:    embedderBaseURL,
			Dimensions: getEnvOrDefaultInt("EMBEDDING_DIMS", embedderDefaultDims),
		},
		Storage: StorageConfig{
			Provider: getEnvOrDefault("STORAGE_PROVIDER", "chromem"),
			Path:     getEnvOrDefault("STORAGE_PATH", DefaultStoragePath),
			DBPath:   getEnvOrDefault("SQLITE_PATH", "./knowbase.db"),
			DSN:      os.Getenv("POSTGRES_DSN"),
		},
		RAG: RAGConfig{
			TopK:        getEnvOrDefaultInt("RAG_TOP_K", DefaultTopK),
			SearchLimit: getEnvOrDefaultInt("SEARCH_LIMIT", DefaultSearchLimit),
		},
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewKnowledgeError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewKnowledgeError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// applyDefaults fills zero-valued fields so a hand-built Config behaves
// like one from LoadConfigFromEnv.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "dev"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "ollama"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "chromem"
	}
	if c.Storage.Provider == "chromem" && c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultTopK
	}
	if c.RAG.SearchLimit == 0 {
		c.RAG.SearchLimit = DefaultSearchLimit
	}
}

// Validate validates the configuration.
//
// Provider names must be known and retrieval numbers positive. Returns
// an error wrapping ErrInvalidConfig on the first violation.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		return NewKnowledgeError("Validate", fmt.Errorf("unknown llm provider %q: %w", c.LLM.Provider, ErrInvalidConfig))
	}

	switch c.Embedder.Provider {
	case "ollama", "openai":
	default:
		return NewKnowledgeError("Validate", fmt.Errorf("unknown embedding provider %q: %w", c.Embedder.Provider, ErrInvalidConfig))
	}

	switch c.Storage.Provider {
	case "chromem", "sqlite", "postgres":
	default:
		return NewKnowledgeError("Validate", fmt.Errorf("unknown storage provider %q: %w", c.Storage.Provider, ErrInvalidConfig))
	}

	if c.RAG.TopK < 1 {
		return NewKnowledgeError("Validate", fmt.Errorf("top_k must be positive: %w", ErrInvalidConfig))
	}
	if c.RAG.SearchLimit < 1 {
		return NewKnowledgeError("Validate", fmt.Errorf("search_limit must be positive: %w", ErrInvalidConfig))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return NewKnowledgeError("Validate", fmt.Errorf("server port %d out of range: %w", c.Server.Port, ErrInvalidConfig))
	}

	return nil
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt gets an integer environment variable or returns the
// default value. Unparseable values fall back to the default.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// FindEnvFile searches for .env or .env.example files.
//
// The search checks the current directory, then up to 5 parent
// directories, returning the first match.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
