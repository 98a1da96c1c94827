package query

import (
	"context"

	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
	"github.com/kbindex/kbindex/internal/domain/search"
)

// CollectionReader resolves index metadata.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// CandidateSearcher runs KNN retrieval over stored chunks.
type CandidateSearcher interface {
	SearchKNN(ctx context.Context, collectionName string, vector []float32, k int) ([]search.Candidate, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Reranker scores candidates against the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []string) ([]domain.RerankScore, error)
}
