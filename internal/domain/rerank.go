package domain

import "context"

// Reranker scores (query, candidate) pairs for relevance. Scores come
// back tagged with the candidate's input index, so output order is free
// but the index-to-score mapping is unambiguous. Implementations must
// short-circuit an empty candidate list without invoking the model.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string) ([]RerankScore, error)
}

// RerankScore is one candidate's relevance score.
type RerankScore struct {
	// Index is the candidate's position in the Rerank input slice.
	Index int
	// Score is the model relevance score; higher is more relevant.
	Score float64
}
