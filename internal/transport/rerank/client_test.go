package rerank

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

func newClient(baseURL string) *Client {
	return New(&Config{
		BaseURL: baseURL,
		Model:   "cross-encoder/ms-marco-MiniLM-L-6-v2",
		Timeout: 5 * time.Second,
		Logger:  zap.NewNop(),
	})
}

func TestScore_AlignsScoresWithInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req rerankRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "what is a token" {
			t.Errorf("unexpected query: %q", req.Query)
		}
		if len(req.Documents) != 3 {
			t.Errorf("expected 3 documents, got %d", len(req.Documents))
		}

		// Results come back in relevance order, not input order.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"index": 2, "relevance_score": 0.9},
			{"index": 0, "relevance_score": 0.4},
			{"index": 1, "relevance_score": 0.1}
		]}`))
	}))
	defer server.Close()

	c := newClient(server.URL)
	scores, err := c.Score(context.Background(), "what is a token", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	want := []float64{0.4, 0.1, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("score %d: expected %f, got %f", i, want[i], scores[i])
		}
	}
}

func TestScore_EmptyInputSkipsRequest(t *testing.T) {
	c := newClient("http://127.0.0.1:1") // would fail if called

	scores, err := c.Score(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %v", scores)
	}
}

func TestScore_HTTPErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	c := newClient(server.URL)
	_, err := c.Score(context.Background(), "q", []string{"a"})
	if !errors.Is(err, domain.ErrRerankFailed) {
		t.Fatalf("expected ErrRerankFailed, got %v", err)
	}
}

func TestScore_OutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"index": 5, "relevance_score": 0.9}]}`))
	}))
	defer server.Close()

	c := newClient(server.URL)
	_, err := c.Score(context.Background(), "q", []string{"a"})
	if !errors.Is(err, domain.ErrRerankFailed) {
		t.Fatalf("expected ErrRerankFailed, got %v", err)
	}
}
