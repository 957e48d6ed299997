package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func newGenerator(apiKey, baseURL string) *Generator {
	return New(&Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "llama3-70b-8192",
		Temperature: 0.1,
		MaxTokens:   800,
		Timeout:     5 * time.Second,
		Logger:      zap.NewNop(),
	})
}

func TestGenerate_Success(t *testing.T) {
	var gotReq struct {
		Model       string `json:"model"`
		Temperature float32
		MaxTokens   int `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "The answer is 42 [#1]."}}],
			"usage": {"completion_tokens": 9}
		}`))
	}))
	defer server.Close()

	g := newGenerator("test-key", server.URL)

	answer, err := g.Generate(context.Background(), "system instruction", "user prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "The answer is 42 [#1]." {
		t.Errorf("unexpected answer: %q", answer)
	}
	if gotReq.Model != "llama3-70b-8192" {
		t.Errorf("unexpected model: %s", gotReq.Model)
	}
	if gotReq.MaxTokens != 800 {
		t.Errorf("unexpected max_tokens: %d", gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	g := newGenerator("", "http://127.0.0.1:1")

	_, err := g.Generate(context.Background(), "sys", "user")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestGenerate_APIErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit exceeded", "type": "rate_limit"}}`))
	}))
	defer server.Close()

	g := newGenerator("test-key", server.URL)

	_, err := g.Generate(context.Background(), "sys", "user")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerate_NetworkFailureWrapsSentinel(t *testing.T) {
	g := newGenerator("test-key", "http://127.0.0.1:1")

	_, err := g.Generate(context.Background(), "sys", "user")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	g := newGenerator("test-key", server.URL)

	_, err := g.Generate(context.Background(), "sys", "user")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
