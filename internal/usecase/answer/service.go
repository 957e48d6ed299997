// Package answer runs the retrieval-augmented answer pipeline.
package answer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

const fallbackAnswer = "I couldn't find anything relevant in the indexed documents. " +
	"Try uploading PDFs and re-processing."

const systemPrompt = "You are a study assistant that answers STRICTLY using the provided context blocks. " +
	"Cite sources like [#1], [#2] in your answer where relevant. " +
	"If the answer is not in the context, say you don't have enough information."

// Service orchestrates one answer run: embed the query, retrieve candidates,
// rerank, assemble context, generate. Stages run strictly sequentially; each
// depends on the previous stage's output.
type Service struct {
	embed  QueryEmbedder
	index  IndexSearcher
	rerank Reranker
	gen    Generator
	k      int
	topK   int
	logger *zap.Logger
}

// New creates an answer service. k is the first-stage retrieval width, topK
// the number of candidates kept after reranking.
func New(
	embed QueryEmbedder,
	index IndexSearcher,
	rerank Reranker,
	gen Generator,
	k, topK int,
	logger *zap.Logger,
) *Service {
	return &Service{
		embed:  embed,
		index:  index,
		rerank: rerank,
		gen:    gen,
		k:      k,
		topK:   topK,
		logger: logger,
	}
}

// Answer resolves a query against the index. An empty index yields the fixed
// fallback answer with no generator call. A generation failure is downgraded
// to a descriptive answer string; the citations computed up to that point are
// still returned.
func (s *Service) Answer(ctx context.Context, query string) (domain.AnswerResult, error) {
	if err := s.checkModel(ctx); err != nil {
		return domain.AnswerResult{}, err
	}

	embedded, err := s.embed.Embed(ctx, query)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.index.Search(ctx, embedded.Embedding, s.k)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("search index: %w", err)
	}
	if len(candidates) == 0 {
		return domain.AnswerResult{Answer: fallbackAnswer, Sources: []string{}}, nil
	}

	topK := s.topK
	if topK > len(candidates) {
		topK = len(candidates)
	}
	reranked, err := s.rerank.Rerank(ctx, query, candidates, topK)
	if err != nil {
		return domain.AnswerResult{}, fmt.Errorf("rerank candidates: %w", err)
	}

	contextText, labels := assemble(reranked)
	sources := domain.DedupSources(labels)

	userPrompt := fmt.Sprintf("Question: %s\n\nContext Blocks:\n%s", query, contextText)

	answerText, err := s.gen.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.Warn("generation failed, returning citations without an answer",
			zap.Error(err))
		answerText = fmt.Sprintf(
			"LLM call failed: %v. Please check your GROQ_API_KEY and internet connectivity.", err)
	}

	return domain.AnswerResult{Answer: answerText, Sources: sources}, nil
}

// checkModel rejects a query when the index was built with a different
// embedding model than the one currently configured. A never-written index
// has no recorded model and passes.
func (s *Service) checkModel(ctx context.Context) error {
	indexModel, err := s.index.Model(ctx)
	if err != nil {
		return fmt.Errorf("read index model: %w", err)
	}
	if indexModel == "" {
		return nil
	}
	if current := s.embed.Model(); indexModel != current {
		return fmt.Errorf("index built with %q, configured embedder is %q: %w",
			indexModel, current, domain.ErrModelMismatch)
	}
	return nil
}
