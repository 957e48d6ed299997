// Package chi exposes the ingest/answer pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/domain"
)

const maxUploadBytes = 64 << 20

// Ingester runs the ingestion pipeline over the upload directory's documents.
type Ingester interface {
	Ingest(ctx context.Context, docs []domain.Document) (domain.IngestResult, error)
}

// Answerer runs the answer pipeline for one query.
type Answerer interface {
	Answer(ctx context.Context, query string) (domain.AnswerResult, error)
}

// DocumentLoader reads the upload directory into documents.
type DocumentLoader interface {
	Load() ([]domain.Document, error)
}

// InteractionRecorder logs one question/answer exchange, best-effort.
type InteractionRecorder interface {
	Record(query, answer string, sources []string)
}

// Server is the hand-written HTTP surface: upload-and-process, ask, health,
// metrics.
type Server struct {
	ingest    Ingester
	answer    Answerer
	loader    DocumentLoader
	recorder  InteractionRecorder
	uploadDir string
	logger    *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingester,
	answer Answerer,
	loader DocumentLoader,
	recorder InteractionRecorder,
	uploadDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:    ingest,
		answer:    answer,
		loader:    loader,
		recorder:  recorder,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Routes mounts the server's handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/upload-docs", s.UploadDocs)
	r.Get("/ask", s.Ask)
	r.Get("/healthz", s.Healthz)
	r.Get("/metrics", s.Metrics)
}

type ingestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type answerResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// UploadDocs handles POST /upload-docs. Saves the multipart files into the
// upload directory, then reprocesses the whole directory into a fresh index.
func (s *Server) UploadDocs(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request: "+err.Error())
		return
	}

	if r.MultipartForm != nil {
		for _, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				if err := s.saveUpload(fh.Filename, fh); err != nil {
					s.logger.Warn("failed to save upload",
						zap.String("filename", fh.Filename),
						zap.Error(err))
					writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
					return
				}
			}
		}
	}

	docs, err := s.loader.Load()
	if err != nil {
		s.handleError(w, fmt.Errorf("load documents: %w", err))
		return
	}

	result, err := s.ingest.Ingest(r.Context(), docs)
	if err != nil {
		s.handleError(w, err)
		return
	}

	status := http.StatusOK
	if result.Status == domain.IngestError {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ingestResponse{
		Status:  string(result.Status),
		Message: result.Message,
	})
}

// Ask handles GET /ask?q=. Records the interaction fire-and-forget after a
// successful answer.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	result, err := s.answer.Answer(r.Context(), query)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if s.recorder != nil {
		go s.recorder.Record(query, result.Answer, result.Sources)
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, answerResponse{
		Answer:  result.Answer,
		Sources: sources,
	})
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// saveUpload copies one multipart file into the upload directory. The stored
// name is the base of the client-supplied filename, so path traversal in the
// header cannot escape the directory.
func (s *Server) saveUpload(filename string, fh *multipart.FileHeader) error {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid filename %q", filename)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open multipart file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return fmt.Errorf("create target file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write target file: %w", err)
	}
	return nil
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Warn("pipeline error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrModelMismatch):
		writeError(w, http.StatusConflict,
			"The index was built with a different embedding model. Re-process your documents.")
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, "Embedding provider error")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
