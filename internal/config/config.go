package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Paths     PathsConfig     `yaml:"paths"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Rerank    RerankConfig    `yaml:"rerank"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// PathsConfig holds the data directories. All three are created at startup.
type PathsConfig struct {
	VectorStoreDir string `yaml:"vectorstore_dir"`
	UploadDir      string `yaml:"upload_dir"`
	LogsDir        string `yaml:"logs_dir"`
}

// ChunkingConfig holds token-window chunking settings.
type ChunkingConfig struct {
	Encoding  string `yaml:"encoding"`   // tokenizer encoding name
	ChunkSize int    `yaml:"chunk_size"` // tokens per chunk
	Overlap   int    `yaml:"overlap"`    // tokens shared between consecutive chunks
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// RerankConfig holds cross-encoder scoring service settings.
type RerankConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LLMConfig holds completion service settings.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// RetrievalConfig holds retrieval fan-out settings.
type RetrievalConfig struct {
	K    int `yaml:"k"`     // first-stage candidates
	TopK int `yaml:"top_k"` // candidates kept after reranking
}

// CacheConfig holds the optional embedding cache store. Empty addrs disable it.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// The ask endpoint waits on the completion service, which itself has
		// a 60s budget.
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Paths.VectorStoreDir == "" {
		c.Paths.VectorStoreDir = "vectorstore"
	}
	if c.Paths.UploadDir == "" {
		c.Paths.UploadDir = "uploaded_docs"
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = "logs"
	}
	if c.Chunking.Encoding == "" {
		c.Chunking.Encoding = "cl100k_base"
	}
	if c.Chunking.ChunkSize <= 0 {
		c.Chunking.ChunkSize = 512
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 16
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "thenlper/gte-large"
	}
	if c.Rerank.Model == "" {
		c.Rerank.Model = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	}
	if c.Rerank.TimeoutSec <= 0 {
		c.Rerank.TimeoutSec = 30
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3-70b-8192"
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = 0.1
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 800
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Retrieval.K <= 0 {
		c.Retrieval.K = 12
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = 6
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf(
			"chunking.overlap must be smaller than chunking.chunk_size, got %d >= %d",
			c.Chunking.Overlap, c.Chunking.ChunkSize,
		)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Rerank.BaseURL == "" {
		return fmt.Errorf("rerank.base_url is required")
	}
	if c.Retrieval.TopK > c.Retrieval.K {
		return fmt.Errorf(
			"retrieval.top_k must not exceed retrieval.k, got %d > %d",
			c.Retrieval.TopK, c.Retrieval.K,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
