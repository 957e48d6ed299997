// Package docsource loads user-uploaded documents from the upload directory.
// PDF text extraction happens here; the pipeline itself only sees text and
// page numbers.
package docsource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Loader reads documents from a directory. Supported: *.pdf (per-page text)
// and *.txt (one unnumbered page).
type Loader struct {
	dir    string
	logger *zap.Logger
}

// New creates a loader over the given directory.
func New(dir string, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load reads every supported file in the directory, sorted by file name for
// deterministic ingestion order. A file that fails to parse is logged and
// skipped; it does not abort the whole load. A missing directory yields zero
// documents.
func (l *Loader) Load() ([]domain.Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []domain.Document
	for _, name := range names {
		path := filepath.Join(l.dir, name)

		var doc domain.Document
		switch strings.ToLower(filepath.Ext(name)) {
		case ".pdf":
			doc, err = loadPDF(path, name)
		case ".txt":
			doc, err = loadText(path, name)
		default:
			continue
		}
		if err != nil {
			l.logger.Warn("Skipping unreadable document",
				zap.String("file", name), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// loadPDF extracts plain text per page, keeping 1-based page numbers.
func loadPDF(path, name string) (domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	doc := domain.Document{ID: name}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		doc.Pages = append(doc.Pages, domain.Page{Number: i, Text: text})
	}
	return doc, nil
}

// loadText reads the whole file as a single page without a page number.
func loadText(path, name string) (domain.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return domain.Document{}, fmt.Errorf("read text file: %w", err)
	}
	return domain.Document{
		ID:    name,
		Pages: []domain.Page{{Text: string(data)}},
	}, nil
}
