package domain

import "fmt"

// Page is one page of extractable text from a source document.
type Page struct {
	Number int
	Text   string
}

// Document is a user-supplied source document: an identifier (the original
// file name) plus its pages in reading order. Immutable once loaded.
type Document struct {
	ID    string
	Pages []Page
}

// Chunk is a token-bounded segment of a document. A chunk that spans a page
// boundary is attributed to the page of its first token. HasPage is false
// when the source carries no page numbers. Identity is (DocumentID, Index).
type Chunk struct {
	DocumentID string
	Index      int
	Page       int
	HasPage    bool
	Text       string
	TokenCount int
}

// Label renders the citation label for a chunk, e.g. "notes.pdf [page 3]".
func (c Chunk) Label() string {
	if c.HasPage {
		return fmt.Sprintf("%s [page %d]", c.DocumentID, c.Page)
	}
	return c.DocumentID
}

// IndexEntry pairs a chunk with its embedding for persistence.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a chunk with a relevance score. Used both for first-stage
// retrieval (cosine similarity) and for reranked results (cross-encoder score).
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
