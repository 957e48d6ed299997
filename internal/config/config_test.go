package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{
			BaseURL: "https://api.example.com/v1",
		},
		Rerank: RerankConfig{
			BaseURL: "https://rerank.example.com/v1",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_OverlapNotSmallerThanChunkSize(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.ChunkSize = 16
	cfg.Chunking.Overlap = 16

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for overlap >= chunk_size")
	}

	expected := "chunking.overlap must be smaller than chunking.chunk_size, got 16 >= 16"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MissingEmbeddingBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding base_url")
	}
}

func TestValidate_MissingRerankBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Rerank.BaseURL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing rerank base_url")
	}
}

func TestValidate_TopKExceedsK(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.K = 4
	cfg.Retrieval.TopK = 6

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for top_k > k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Chunking.Encoding != "cl100k_base" {
		t.Errorf("expected Encoding=cl100k_base, got %q", cfg.Chunking.Encoding)
	}
	if cfg.Chunking.ChunkSize != 512 {
		t.Errorf("expected ChunkSize=512, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Chunking.Overlap != 16 {
		t.Errorf("expected Overlap=16, got %d", cfg.Chunking.Overlap)
	}
	if cfg.Embedding.Model != "thenlper/gte-large" {
		t.Errorf("expected embedding model default, got %q", cfg.Embedding.Model)
	}
	if cfg.Rerank.Model != "cross-encoder/ms-marco-MiniLM-L-6-v2" {
		t.Errorf("expected rerank model default, got %q", cfg.Rerank.Model)
	}
	if cfg.LLM.Model != "llama3-70b-8192" {
		t.Errorf("expected LLM model default, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("expected Temperature=0.1, got %v", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 800 {
		t.Errorf("expected MaxTokens=800, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.TimeoutSec != 60 {
		t.Errorf("expected TimeoutSec=60, got %d", cfg.LLM.TimeoutSec)
	}
	if cfg.Retrieval.K != 12 {
		t.Errorf("expected K=12, got %d", cfg.Retrieval.K)
	}
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("expected TopK=6, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Paths.VectorStoreDir != "vectorstore" {
		t.Errorf("expected VectorStoreDir=vectorstore, got %q", cfg.Paths.VectorStoreDir)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 15, WriteTimeoutSec: 120, ShutdownSec: 5},
		Chunking:  ChunkingConfig{Encoding: "o200k_base", ChunkSize: 256, Overlap: 32},
		Retrieval: RetrievalConfig{K: 20, TopK: 10},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 15 {
		t.Errorf("expected ReadTimeoutSec=15, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Chunking.Encoding != "o200k_base" {
		t.Errorf("expected Encoding=o200k_base, got %q", cfg.Chunking.Encoding)
	}
	if cfg.Chunking.ChunkSize != 256 {
		t.Errorf("expected ChunkSize=256, got %d", cfg.Chunking.ChunkSize)
	}
	if cfg.Retrieval.K != 20 {
		t.Errorf("expected K=20, got %d", cfg.Retrieval.K)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("DOCDEX_TEST_KEY", "secret")
	defer os.Unsetenv("DOCDEX_TEST_KEY")

	in := []byte("api_key: ${DOCDEX_TEST_KEY}\nmodel: ${DOCDEX_TEST_MODEL:-llama3-70b-8192}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: llama3-70b-8192\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
