// Package query implements two-stage retrieval: vector KNN followed by
// cross-encoder reranking.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbindex/kbindex/internal/domain"
	"github.com/kbindex/kbindex/internal/domain/search"
)

// Retrieval limits.
const (
	DefaultTopK = 5
	MaxTopK     = 100

	// DefaultOverfetch widens the KNN stage so the reranker sees more
	// candidates than the caller asked for.
	DefaultOverfetch = 4
)

// Service handles retrieval queries.
type Service struct {
	colls     CollectionReader
	searcher  CandidateSearcher
	embed     Embedder
	rerank    Reranker
	overfetch int
}

// New creates a query service.
func New(colls CollectionReader, searcher CandidateSearcher, embed Embedder, rerank Reranker) *Service {
	return &Service{
		colls:     colls,
		searcher:  searcher,
		embed:     embed,
		rerank:    rerank,
		overfetch: DefaultOverfetch,
	}
}

// WithOverfetch configures the KNN overfetch multiplier.
func (s *Service) WithOverfetch(n int) *Service {
	if n > 0 {
		s.overfetch = n
	}
	return s
}

// Query embeds the query text, retrieves candidates by L2 distance,
// reranks them and returns the topK best matches ordered by relevance
// score descending. Ties keep the candidate stage order, which itself
// breaks distance ties by insertion sequence.
func (s *Service) Query(ctx context.Context, indexName, queryText string, topK int) ([]search.Result, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrInvalidQuery)
	}
	if topK < 1 || topK > MaxTopK {
		return nil, fmt.Errorf("top_k must be between 1 and %d: %w", MaxTopK, domain.ErrInvalidQuery)
	}

	if _, err := s.colls.Get(ctx, indexName); err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}

	embedded, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := s.searcher.SearchKNN(ctx, indexName, embedded.Embedding, topK*s.overfetch)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	if len(candidates) == 0 {
		return []search.Result{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content()
	}

	scores, err := s.rerank.Rerank(ctx, queryText, texts)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	scored := make([]float64, len(candidates))
	seen := make([]bool, len(candidates))
	for _, sc := range scores {
		if sc.Index < 0 || sc.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank score index %d out of range: %w",
				sc.Index, domain.ErrRerankProviderError)
		}
		scored[sc.Index] = sc.Score
		seen[sc.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank score missing for candidate %d: %w",
				i, domain.ErrRerankProviderError)
		}
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scored[order[a]] > scored[order[b]]
	})

	if len(order) > topK {
		order = order[:topK]
	}

	results := make([]search.Result, len(order))
	for i, idx := range order {
		c := candidates[idx]
		results[i] = search.NewResult(c.Content(), scored[idx], c.SourceDocument(), c.ChunkOffset())
	}

	return results, nil
}
