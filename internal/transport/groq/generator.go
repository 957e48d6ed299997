// Package groq provides the completion adapter for the Groq
// OpenAI-compatible chat API.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Generator invokes a chat completion service. The answer pipeline treats
// the model as a black box returning text; no output parsing happens here.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	hasKey      bool
	logger      *zap.Logger
}

// Config holds the completion service settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// New creates a Groq generator. The HTTP client carries the configured
// timeout so a hung completion call cannot stall an answer indefinitely.
func New(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		hasKey:      cfg.APIKey != "",
		logger:      cfg.Logger,
	}
}

// Generate sends a system instruction and user prompt and returns the
// completion text. A missing credential is reported as a distinct condition
// (domain.ErrMissingCredential); every other failure wraps
// domain.ErrGenerationFailed. Callers downgrade both to an answer string.
func (g *Generator) Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	if !g.hasKey {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("GROQ_API_KEY is not set: %w", domain.ErrMissingCredential)
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", wrapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.model).Observe(duration.Seconds())

	g.logger.Debug("Completion received",
		zap.String("model", g.model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", duration),
	)

	return resp.Choices[0].Message.Content, nil
}

// wrapAPIError folds transport and API errors into ErrGenerationFailed while
// keeping the provider's message for the user-facing failure string.
func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrGenerationFailed)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrGenerationFailed)
	}

	// Network failure or timeout.
	return fmt.Errorf("completion request failed: %v: %w", err, domain.ErrGenerationFailed)
}
