// Package ingest rebuilds the vector index from a document set.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Service runs the ingestion pipeline: chunk, embed, write. Each call
// replaces the persisted index with the given document set
// (replace-on-reprocess).
type Service struct {
	chunker Chunker
	embed   Embedder
	index   IndexWriter
	logger  *zap.Logger
}

// New creates an ingest service.
func New(chunker Chunker, embed Embedder, index IndexWriter, logger *zap.Logger) *Service {
	return &Service{chunker: chunker, embed: embed, index: index, logger: logger}
}

// Ingest chunks and embeds all documents and writes the resulting entries as
// a single index rebuild. An empty document set is an input error. A document
// set that produces zero chunks still rebuilds (to an empty index) and says
// so in the message.
func (s *Service) Ingest(ctx context.Context, docs []domain.Document) (domain.IngestResult, error) {
	if len(docs) == 0 {
		return domain.IngestResult{
			Status:  domain.IngestError,
			Message: "No PDFs found to process. Please upload files.",
		}, nil
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks := s.chunker.Split(doc)
		if len(docChunks) == 0 {
			s.logger.Warn("Document produced no chunks", zap.String("document", doc.ID))
		}
		chunks = append(chunks, docChunks...)
	}

	entries := make([]domain.IndexEntry, len(chunks))
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		res, err := s.batchEmbed(ctx, texts)
		if err != nil {
			return domain.IngestResult{}, fmt.Errorf("embed chunks: %w", err)
		}
		for i, c := range chunks {
			entries[i] = domain.IndexEntry{Chunk: c, Vector: res.Embeddings[i]}
		}

		s.logger.Info("Corpus embedded",
			zap.Int("documents", len(docs)),
			zap.Int("chunks", len(chunks)),
			zap.Int("total_tokens", res.TotalTokens),
		)
	}

	if err := s.index.Write(ctx, s.embed.Model(), entries); err != nil {
		return domain.IngestResult{}, fmt.Errorf("write index: %w", err)
	}

	msg := fmt.Sprintf("Processed %d document(s) → %d chunks. Ready to chat!", len(docs), len(chunks))
	if len(chunks) == 0 {
		msg = fmt.Sprintf("Processed %d document(s) → 0 chunks (no extractable text).", len(docs))
	}
	return domain.IngestResult{Status: domain.IngestSuccess, Message: msg}, nil
}

// batchEmbed uses the embedder's native batch endpoint when available.
func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}
