// Package search holds retrieval value objects shared between the
// storage and query layers.
package search

// Candidate is a chunk returned by vector similarity search, prior to
// reranking. Distance is the raw L2 distance to the query vector;
// lower is closer.
type Candidate struct {
	id             string
	content        string
	distance       float64
	sourceDocument string
	chunkOffset    int
	seq            int64
}

// NewCandidate creates a search candidate.
func NewCandidate(id, content string, distance float64, sourceDocument string, chunkOffset int, seq int64) Candidate {
	return Candidate{
		id:             id,
		content:        content,
		distance:       distance,
		sourceDocument: sourceDocument,
		chunkOffset:    chunkOffset,
		seq:            seq,
	}
}

// ID returns the record id.
func (c Candidate) ID() string { return c.id }

// Content returns the chunk text.
func (c Candidate) Content() string { return c.content }

// Distance returns the L2 distance to the query vector.
func (c Candidate) Distance() float64 { return c.distance }

// SourceDocument returns the originating document identifier.
func (c Candidate) SourceDocument() string { return c.sourceDocument }

// ChunkOffset returns the chunk's offset within its source document.
func (c Candidate) ChunkOffset() int { return c.chunkOffset }

// Seq returns the storage insertion sequence (deterministic tie-break).
func (c Candidate) Seq() int64 { return c.seq }
