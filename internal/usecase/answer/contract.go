package answer

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// QueryEmbedder vectorizes the query text. Must be backed by the same model
// the index was built with.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Model() string
}

// IndexSearcher reads the persisted vector index.
type IndexSearcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)
	Model(ctx context.Context) (string, error)
}

// Reranker re-orders retrieval candidates by pairwise relevance.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.ScoredChunk, topK int) ([]domain.ScoredChunk, error)
}

// Generator synthesizes the final answer from the assembled context.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error)
}
