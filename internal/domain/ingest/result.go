// Package ingest holds per-document outcome values for batch ingestion.
package ingest

// DocStatus is the processing outcome of a single document.
type DocStatus string

// Document status values.
const (
	StatusOK    DocStatus = "ok"
	StatusError DocStatus = "error"
)

// Result is the outcome of ingesting one document in a batch. Batch
// failures are isolated at the document boundary: a Result is recorded
// and logged, never routed back through the accepted response.
type Result struct {
	document string
	status   DocStatus
	chunks   int
	err      error
}

// NewOK creates a successful document result.
func NewOK(document string, chunks int) Result {
	return Result{document: document, status: StatusOK, chunks: chunks}
}

// NewError creates a failed document result.
func NewError(document string, err error) Result {
	return Result{document: document, status: StatusError, err: err}
}

// Document returns the document path.
func (r Result) Document() string { return r.document }

// Status returns the processing outcome.
func (r Result) Status() DocStatus { return r.status }

// Chunks returns the number of chunks stored on success.
func (r Result) Chunks() int { return r.chunks }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
