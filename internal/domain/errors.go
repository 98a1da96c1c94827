package domain

import "errors"

var (
	// ErrNotFound signals a missing index (collection).
	ErrNotFound = errors.New("index not found")
	// ErrAlreadyExists signals a duplicate index name.
	ErrAlreadyExists = errors.New("index already exists")
	// ErrDocumentNotFound signals a missing source document or directory.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidName signals a malformed index name.
	ErrInvalidName = errors.New("invalid index name")
	// ErrInvalidQuery signals a malformed query request (empty text, bad top_k).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidDocument signals a document that cannot be ingested.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrVectorDimMismatch signals an embedding of the wrong dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a rerank provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
)
