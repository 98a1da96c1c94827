package search

// Result is one reranked query answer.
type Result struct {
	content        string
	relevanceScore float64
	sourceDocument string
	chunkOffset    int
}

// NewResult creates a query result.
func NewResult(content string, relevanceScore float64, sourceDocument string, chunkOffset int) Result {
	return Result{
		content:        content,
		relevanceScore: relevanceScore,
		sourceDocument: sourceDocument,
		chunkOffset:    chunkOffset,
	}
}

// Content returns the chunk text.
func (r Result) Content() string { return r.content }

// RelevanceScore returns the rerank score; results are ordered by
// non-increasing score.
func (r Result) RelevanceScore() float64 { return r.relevanceScore }

// SourceDocument returns the originating document identifier.
func (r Result) SourceDocument() string { return r.sourceDocument }

// ChunkOffset returns the chunk's offset within its source document.
func (r Result) ChunkOffset() int { return r.chunkOffset }
