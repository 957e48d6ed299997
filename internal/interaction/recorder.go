// Package interaction appends question/answer records to a JSONL log.
package interaction

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record is one logged question/answer exchange.
type Record struct {
	Timestamp time.Time `json:"ts"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources"`
}

// Recorder appends records to <dir>/interactions.jsonl. Recording is
// best-effort: failures are logged and never surfaced to the caller, so the
// answer path cannot be broken by a full disk or a missing directory.
type Recorder struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// New creates a recorder writing under dir.
func New(dir string, logger *zap.Logger) *Recorder {
	return &Recorder{
		path:   filepath.Join(dir, "interactions.jsonl"),
		logger: logger,
	}
}

// Record appends one JSON line. Never returns an error.
func (r *Recorder) Record(query, answer string, sources []string) {
	rec := Record{
		Timestamp: time.Now().UTC(),
		Query:     query,
		Answer:    answer,
		Sources:   sources,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		r.logger.Warn("failed to marshal interaction record", zap.Error(err))
		return
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		r.logger.Warn("failed to create interaction log directory", zap.Error(err))
		return
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.logger.Warn("failed to open interaction log", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		r.logger.Warn("failed to append interaction record", zap.Error(err))
	}
}
