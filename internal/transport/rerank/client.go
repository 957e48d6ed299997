// Package rerank provides the HTTP client for a cross-encoder scoring
// service (Cohere/Jina-compatible rerank API).
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/metrics"
)

// Client scores (query, document) pairs jointly with a cross-encoder model.
// Build one per process and reuse it.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the scoring service settings.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates a rerank client.
func New(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

// Model reports the configured cross-encoder model identifier.
func (c *Client) Model() string { return c.model }

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Score returns one relevance score per document, positionally aligned with
// the input. Ordering and top-k capping are the caller's concern.
func (c *Client) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("rerank request: %v: %w", err, domain.ErrRerankFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, string(detail), domain.ErrRerankFailed)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("decode rerank response: %v: %w", err, domain.ErrRerankFailed)
	}

	scores := make([]float64, len(documents))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(scores) {
			metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
			return nil, fmt.Errorf("rerank result index %d out of range: %w",
				r.Index, domain.ErrRerankFailed)
		}
		scores[r.Index] = r.RelevanceScore
	}

	metrics.RerankRequestsTotal.WithLabelValues(c.model, "success").Inc()
	return scores, nil
}
