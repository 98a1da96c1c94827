package chi

import (
	"time"

	domcol "github.com/kbindex/kbindex/internal/domain/collection"
	"github.com/kbindex/kbindex/internal/domain/search"
)

// errorCode is a machine-readable error identifier in API responses.
type errorCode string

const (
	codeBadRequest             errorCode = "bad_request"
	codeValidationFailed       errorCode = "validation_failed"
	codeIndexNotFound          errorCode = "index_not_found"
	codeDocumentNotFound       errorCode = "document_not_found"
	codeIndexAlreadyExists     errorCode = "index_already_exists"
	codeVectorDimMismatch      errorCode = "vector_dim_mismatch"
	codeEmbeddingProviderError errorCode = "embedding_provider_error"
	codeRerankProviderError    errorCode = "rerank_provider_error"
	codeInternalError          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type createIndexRequest struct {
	Name string `json:"name"`
}

type createIndexResponse struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Status    string `json:"status"`
}

type indexItem struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	CreatedAt string `json:"created_at"`
}

type listIndexesResponse struct {
	Indexes []indexItem `json:"indexes"`
	Count   int         `json:"count"`
}

type indexCountResponse struct {
	IndexName string `json:"index_name"`
	Count     int    `json:"count"`
}

type deleteIndexResponse struct {
	IndexName string `json:"index_name"`
	Status    string `json:"status"`
}

type encodeDocumentRequest struct {
	DocumentPath string `json:"document_path"`
	IndexName    string `json:"index_name"`
}

type encodeDocumentResponse struct {
	IndexName    string `json:"index_name"`
	DocumentPath string `json:"document_path"`
	ChunkCount   int    `json:"chunk_count"`
	TokenCounts  []int  `json:"token_counts"`
}

type encodeBatchRequest struct {
	DirectoryPath string   `json:"directory_path"`
	IndexName     string   `json:"index_name"`
	FilePatterns  []string `json:"file_patterns,omitempty"`
}

type encodeBatchResponse struct {
	IndexName       string `json:"index_name"`
	DocumentsQueued int    `json:"documents_queued"`
	Status          string `json:"status"`
}

type queryRequest struct {
	Query     string `json:"query"`
	IndexName string `json:"index_name"`
	TopK      *int   `json:"top_k,omitempty"`
}

type queryResultItem struct {
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
	SourceDocument string  `json:"source_document"`
	ChunkOffset    int     `json:"chunk_offset"`
}

type queryResponse struct {
	IndexName string            `json:"index_name"`
	Query     string            `json:"query"`
	Results   []queryResultItem `json:"results"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func indexToItem(c domcol.Collection) indexItem {
	return indexItem{
		Name:      c.Name(),
		Dimension: c.VectorDim(),
		CreatedAt: time.UnixMilli(c.CreatedAt()).UTC().Format(time.RFC3339),
	}
}

func resultToItem(r search.Result) queryResultItem {
	return queryResultItem{
		Content:        r.Content(),
		RelevanceScore: r.RelevanceScore(),
		SourceDocument: r.SourceDocument(),
		ChunkOffset:    r.ChunkOffset(),
	}
}
