// Package chunker splits documents into overlapping token-bounded segments.
package chunker

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Tokenizer converts text to token ids and back. Chunk size and overlap are
// expressed in this tokenizer's units; any tokenizer with consistent
// boundaries works as long as ingestion and query-time settings agree.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Chunker produces fixed-size token windows with a fixed overlap between
// consecutive windows, preserving document order.
type Chunker struct {
	tok       Tokenizer
	chunkSize int
	overlap   int
}

// New creates a chunker. overlap must be smaller than chunkSize.
func New(tok Tokenizer, chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Chunker{tok: tok, chunkSize: chunkSize, overlap: overlap}, nil
}

// Split chunks a document into token windows. A document shorter than one
// chunk yields exactly one chunk; a document with no extractable text yields
// zero chunks, which is not an error at this layer.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	// Token offset of each page start, so a chunk can be attributed to the
	// page of its first token.
	var tokens []int
	var starts []pageStart
	hasPages := false

	for _, p := range doc.Pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		if len(tokens) > 0 {
			// Page boundary becomes a newline so windows never glue words together.
			tokens = append(tokens, c.tok.Encode("\n")...)
		}
		starts = append(starts, pageStart{offset: len(tokens), number: p.Number})
		if p.Number > 0 {
			hasPages = true
		}
		tokens = append(tokens, c.tok.Encode(text)...)
	}

	if len(tokens) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	step := c.chunkSize - c.overlap
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunk := domain.Chunk{
			DocumentID: doc.ID,
			Index:      len(chunks),
			Text:       c.tok.Decode(window),
			TokenCount: len(window),
		}
		if hasPages {
			chunk.Page = pageAt(starts, start)
			chunk.HasPage = true
		}
		chunks = append(chunks, chunk)

		if end == len(tokens) {
			break
		}
	}
	return chunks
}

// pageStart records the token offset at which a page begins.
type pageStart struct {
	offset int
	number int
}

// pageAt returns the page number owning the token at the given offset.
func pageAt(starts []pageStart, offset int) int {
	page := starts[0].number
	for _, s := range starts {
		if s.offset > offset {
			break
		}
		page = s.number
	}
	return page
}
