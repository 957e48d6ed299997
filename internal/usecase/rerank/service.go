// Package rerank re-orders retrieval candidates by cross-encoder relevance.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Scorer computes one pairwise (query, document) relevance score per
// document, positionally aligned with the input.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Service applies cross-encoder scores to a candidate set. First-stage vector
// search optimizes recall cheaply; this trades latency for precision on the
// small candidate set it returns.
type Service struct {
	scorer Scorer
}

// New creates a rerank service.
func New(scorer Scorer) *Service {
	return &Service{scorer: scorer}
}

// Rerank scores every candidate against the query and returns the topK best,
// descending by score. The sort is stable: equal scores keep the candidates'
// original retrieval order. topK is capped at the candidate count, so asking
// for more than available never errors.
func (s *Service) Rerank(
	ctx context.Context, query string, candidates []domain.ScoredChunk, topK int,
) ([]domain.ScoredChunk, error) {
	if len(candidates) == 0 || topK <= 0 {
		return nil, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Chunk.Text
	}

	scores, err := s.scorer.Score(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	reranked := make([]domain.ScoredChunk, len(candidates))
	for i, c := range candidates {
		reranked[i] = domain.ScoredChunk{Chunk: c.Chunk, Score: scores[i]}
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if topK > len(reranked) {
		topK = len(reranked)
	}
	return reranked[:topK], nil
}
