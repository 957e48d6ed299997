package ingest

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Chunker splits documents into token-bounded segments.
type Chunker interface {
	Split(doc domain.Document) []domain.Chunk
}

// Embedder vectorizes chunk texts. The same model must be used for queries
// against the resulting index.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	Model() string
}

// IndexWriter persists the rebuilt index as one durable batch write.
type IndexWriter interface {
	Write(ctx context.Context, model string, entries []domain.IndexEntry) error
}
