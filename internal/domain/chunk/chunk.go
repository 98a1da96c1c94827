// Package chunk holds the stored chunk record value object.
package chunk

import (
	"fmt"
	"strings"
)

// Record is one token-bounded segment of a source document with its
// embedding. Records are immutable once written; there is no update
// operation, and removal happens only by deleting the owning collection.
type Record struct {
	id             string
	content        string
	embedding      []float32
	sourceDocument string
	chunkOffset    int
	seq            int64
}

// New validates and creates a Record. The id is left empty; the chunk
// repository assigns a fresh unique id at Add time.
func New(content string, embedding []float32, sourceDocument string, chunkOffset int) (Record, error) {
	if strings.TrimSpace(content) == "" {
		return Record{}, fmt.Errorf("chunk content is required")
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("chunk embedding is required")
	}
	if sourceDocument == "" {
		return Record{}, fmt.Errorf("source document is required")
	}
	if chunkOffset < 0 {
		return Record{}, fmt.Errorf("chunk offset must be non-negative")
	}

	return Record{
		content:        content,
		embedding:      embedding,
		sourceDocument: sourceDocument,
		chunkOffset:    chunkOffset,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, content string, embedding []float32, sourceDocument string, chunkOffset int, seq int64) Record {
	return Record{
		id:             id,
		content:        content,
		embedding:      embedding,
		sourceDocument: sourceDocument,
		chunkOffset:    chunkOffset,
		seq:            seq,
	}
}

// ID returns the record id (empty until stored).
func (r Record) ID() string { return r.id }

// Content returns the chunk text.
func (r Record) Content() string { return r.content }

// Embedding returns the dense vector.
func (r Record) Embedding() []float32 { return r.embedding }

// SourceDocument returns the originating document identifier.
func (r Record) SourceDocument() string { return r.sourceDocument }

// ChunkOffset returns the rune offset of the chunk within its source.
func (r Record) ChunkOffset() int { return r.chunkOffset }

// Seq returns the storage insertion sequence (tie-break ordering).
func (r Record) Seq() int64 { return r.seq }
