// Package chi exposes the HTTP API on a go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
	"github.com/kbindex/kbindex/internal/domain/search"
	healthuc "github.com/kbindex/kbindex/internal/usecase/health"
	ingestuc "github.com/kbindex/kbindex/internal/usecase/ingest"
	queryuc "github.com/kbindex/kbindex/internal/usecase/query"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// IndexService manages index lifecycle.
type IndexService interface {
	Create(ctx context.Context, name string, vectorDim int) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Count(ctx context.Context, name string) (int, error)
	Delete(ctx context.Context, name string) error
}

// IngestService encodes documents into an index.
type IngestService interface {
	EncodeDocument(ctx context.Context, indexName, documentPath string) (ingestuc.Receipt, error)
	EncodeBatch(ctx context.Context, indexName, dir string, patterns []string) (ingestuc.BatchReceipt, error)
}

// QueryService runs retrieval queries.
type QueryService interface {
	Query(ctx context.Context, indexName, queryText string, topK int) ([]search.Result, error)
}

// HealthService reports component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server implements the HTTP API handlers.
type Server struct {
	indexes       IndexService
	ingest        IngestService
	query         QueryService
	health        HealthService
	vectorDim     int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. vectorDim is the process-wide
// embedding dimension applied to every created index.
func NewServer(
	indexes IndexService,
	ingest IngestService,
	query QueryService,
	health HealthService,
	vectorDim int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		indexes:   indexes,
		ingest:    ingest,
		query:     query,
		health:    health,
		vectorDim: vectorDim,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeIndexNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeIndexAlreadyExists),
		sentinelHandler(domain.ErrInvalidName, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrRerankProviderError, http.StatusBadGateway, codeRerankProviderError),
	}
	return s
}

// RegisterRoutes mounts all API handlers on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/indexes", s.CreateIndex)
	r.Get("/indexes", s.ListIndexes)
	r.Get("/indexes/{name}/count", s.CountIndex)
	r.Delete("/indexes/{name}", s.DeleteIndex)
	r.Post("/documents", s.EncodeDocument)
	r.Post("/documents/batch", s.EncodeBatch)
	r.Post("/query", s.Query)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateIndex handles POST /indexes.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req createIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Index name is required")
		return
	}

	col, err := s.indexes.Create(r.Context(), req.Name, s.vectorDim)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createIndexResponse{
		Name:      col.Name(),
		Dimension: col.VectorDim(),
		Status:    "created",
	})
}

// ListIndexes handles GET /indexes.
func (s *Server) ListIndexes(w http.ResponseWriter, r *http.Request) {
	cols, err := s.indexes.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]indexItem, len(cols))
	for i, c := range cols {
		items[i] = indexToItem(c)
	}

	writeJSON(w, http.StatusOK, listIndexesResponse{Indexes: items, Count: len(items)})
}

// CountIndex handles GET /indexes/{name}/count.
func (s *Server) CountIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	n, err := s.indexes.Count(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, indexCountResponse{IndexName: name, Count: n})
}

// DeleteIndex handles DELETE /indexes/{name}.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.indexes.Delete(r.Context(), name); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteIndexResponse{IndexName: name, Status: "deleted"})
}

// EncodeDocument handles POST /documents.
func (s *Server) EncodeDocument(w http.ResponseWriter, r *http.Request) {
	var req encodeDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.IndexName == "" || req.DocumentPath == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "index_name and document_path are required")
		return
	}

	receipt, err := s.ingest.EncodeDocument(r.Context(), req.IndexName, req.DocumentPath)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, encodeDocumentResponse{
		IndexName:    req.IndexName,
		DocumentPath: req.DocumentPath,
		ChunkCount:   receipt.ChunkCount,
		TokenCounts:  receipt.TokenCounts,
	})
}

// EncodeBatch handles POST /documents/batch. The batch is accepted and
// processed in the background; the response only acknowledges it.
func (s *Server) EncodeBatch(w http.ResponseWriter, r *http.Request) {
	var req encodeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.IndexName == "" || req.DirectoryPath == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "index_name and directory_path are required")
		return
	}

	receipt, err := s.ingest.EncodeBatch(r.Context(), req.IndexName, req.DirectoryPath, req.FilePatterns)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, encodeBatchResponse{
		IndexName:       req.IndexName,
		DocumentsQueued: receipt.QueuedDocuments,
		Status:          "accepted",
	})
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.IndexName == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "index_name is required")
		return
	}

	topK := queryuc.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	results, err := s.query.Query(r.Context(), req.IndexName, req.Query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]queryResultItem, len(results))
	for i, res := range results {
		items[i] = resultToItem(res)
	}

	writeJSON(w, http.StatusOK, queryResponse{
		IndexName: req.IndexName,
		Query:     req.Query,
		Results:   items,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrAlreadyExists,
		domain.ErrInvalidName,
		domain.ErrInvalidQuery,
		domain.ErrInvalidDocument,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrRerankProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
