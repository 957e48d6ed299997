package domain

import "errors"

var (
	// ErrNoDocuments signals an ingest call with nothing to process.
	ErrNoDocuments = errors.New("no documents to process")
	// ErrModelMismatch signals that the index was built with a different
	// embedding model than the one currently configured.
	ErrModelMismatch = errors.New("embedding model mismatch")
	// ErrMissingCredential signals an absent API credential.
	ErrMissingCredential = errors.New("missing API credential")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a completion service failure. The answer
	// pipeline downgrades it to a user-facing answer string; it never
	// propagates out of the Answer operation.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrRerankFailed signals a cross-encoder scoring failure.
	ErrRerankFailed = errors.New("rerank failed")
)
