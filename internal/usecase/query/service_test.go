package query

import (
	"context"
	"errors"
	"testing"

	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
	"github.com/kbindex/kbindex/internal/domain/search"
)

type mockColls struct {
	getFn func(ctx context.Context, name string) (domcol.Collection, error)
}

func (m *mockColls) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, 2, 1), nil
}

type mockSearcher struct {
	searchFn func(ctx context.Context, name string, vector []float32, k int) ([]search.Candidate, error)
}

func (m *mockSearcher) SearchKNN(ctx context.Context, name string, vector []float32, k int) ([]search.Candidate, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, name, vector, k)
	}
	return nil, nil
}

type mockEmbed struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbed) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockRerank struct {
	called   bool
	rerankFn func(ctx context.Context, query string, candidates []string) ([]domain.RerankScore, error)
}

func (m *mockRerank) Rerank(ctx context.Context, query string, candidates []string) ([]domain.RerankScore, error) {
	m.called = true
	if m.rerankFn != nil {
		return m.rerankFn(ctx, query, candidates)
	}
	scores := make([]domain.RerankScore, len(candidates))
	for i := range scores {
		scores[i] = domain.RerankScore{Index: i, Score: 0.5}
	}
	return scores, nil
}

func newTestService() (*Service, *mockColls, *mockSearcher, *mockEmbed, *mockRerank) {
	colls := &mockColls{}
	searcher := &mockSearcher{}
	embed := &mockEmbed{}
	rerank := &mockRerank{}
	return New(colls, searcher, embed, rerank), colls, searcher, embed, rerank
}

func candidate(id, content string, distance float64, seq int64) search.Candidate {
	return search.NewCandidate(id, content, distance, "doc.md", 0, seq)
}

func TestQuery_RerankOrdersResults(t *testing.T) {
	svc, _, searcher, _, rerank := newTestService()

	searcher.searchFn = func(_ context.Context, name string, _ []float32, k int) ([]search.Candidate, error) {
		if name != "docs" {
			t.Errorf("unexpected index: %s", name)
		}
		if k != 2*DefaultOverfetch {
			t.Errorf("expected overfetch k=%d, got %d", 2*DefaultOverfetch, k)
		}
		return []search.Candidate{
			candidate("a", "closest but irrelevant", 0.1, 1),
			candidate("b", "relevant answer", 0.5, 2),
			candidate("c", "middling", 0.9, 3),
		}, nil
	}
	rerank.rerankFn = func(_ context.Context, _ string, candidates []string) ([]domain.RerankScore, error) {
		return []domain.RerankScore{
			{Index: 0, Score: 0.1},
			{Index: 1, Score: 0.95},
			{Index: 2, Score: 0.4},
		}, nil
	}

	results, err := svc.Query(context.Background(), "docs", "what is it", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content() != "relevant answer" || results[0].RelevanceScore() != 0.95 {
		t.Errorf("unexpected first result: %s (%f)", results[0].Content(), results[0].RelevanceScore())
	}
	if results[1].Content() != "middling" {
		t.Errorf("unexpected second result: %s", results[1].Content())
	}
}

func TestQuery_ScoreTiesKeepCandidateOrder(t *testing.T) {
	svc, _, searcher, _, rerank := newTestService()

	searcher.searchFn = func(_ context.Context, _ string, _ []float32, _ int) ([]search.Candidate, error) {
		return []search.Candidate{
			candidate("a", "first", 0.1, 1),
			candidate("b", "second", 0.1, 2),
		}, nil
	}
	rerank.rerankFn = func(_ context.Context, _ string, candidates []string) ([]domain.RerankScore, error) {
		return []domain.RerankScore{
			{Index: 0, Score: 0.7},
			{Index: 1, Score: 0.7},
		}, nil
	}

	results, err := svc.Query(context.Background(), "docs", "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Content() != "first" || results[1].Content() != "second" {
		t.Errorf("tie should keep candidate order: %s, %s", results[0].Content(), results[1].Content())
	}
}

func TestQuery_EmptyCandidates_SkipsRerank(t *testing.T) {
	svc, _, searcher, _, rerank := newTestService()
	searcher.searchFn = func(_ context.Context, _ string, _ []float32, _ int) ([]search.Candidate, error) {
		return nil, nil
	}

	results, err := svc.Query(context.Background(), "docs", "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
	if rerank.called {
		t.Error("reranker should not be called without candidates")
	}
}

func TestQuery_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		query string
		topK  int
	}{
		{"empty query", "", 5},
		{"whitespace query", "   ", 5},
		{"topK zero", "q", 0},
		{"topK negative", "q", -1},
		{"topK above max", "q", MaxTopK + 1},
	}
	for _, tc := range cases {
		_, err := svc.Query(ctx, "docs", tc.query, tc.topK)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("%s: expected ErrInvalidQuery, got %v", tc.name, err)
		}
	}
}

func TestQuery_IndexMissing(t *testing.T) {
	svc, colls, _, embed, _ := newTestService()
	colls.getFn = func(_ context.Context, _ string) (domcol.Collection, error) {
		return domcol.Collection{}, domain.ErrNotFound
	}
	embed.embedFn = func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
		t.Error("embedder should not be called for missing index")
		return domain.EmbeddingResult{}, nil
	}

	_, err := svc.Query(context.Background(), "missing", "q", 5)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuery_FewerCandidatesThanTopK(t *testing.T) {
	svc, _, searcher, _, _ := newTestService()
	searcher.searchFn = func(_ context.Context, _ string, _ []float32, _ int) ([]search.Candidate, error) {
		return []search.Candidate{candidate("a", "only one", 0.2, 1)}, nil
	}

	results, err := svc.Query(context.Background(), "docs", "q", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestQuery_RerankError(t *testing.T) {
	svc, _, searcher, _, rerank := newTestService()
	searcher.searchFn = func(_ context.Context, _ string, _ []float32, _ int) ([]search.Candidate, error) {
		return []search.Candidate{candidate("a", "text", 0.2, 1)}, nil
	}
	rerank.rerankFn = func(_ context.Context, _ string, _ []string) ([]domain.RerankScore, error) {
		return nil, domain.ErrRerankProviderError
	}

	_, err := svc.Query(context.Background(), "docs", "q", 5)
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
}

func TestQuery_MissingScore(t *testing.T) {
	svc, _, searcher, _, rerank := newTestService()
	searcher.searchFn = func(_ context.Context, _ string, _ []float32, _ int) ([]search.Candidate, error) {
		return []search.Candidate{
			candidate("a", "one", 0.2, 1),
			candidate("b", "two", 0.3, 2),
		}, nil
	}
	rerank.rerankFn = func(_ context.Context, _ string, _ []string) ([]domain.RerankScore, error) {
		return []domain.RerankScore{{Index: 0, Score: 0.5}}, nil
	}

	_, err := svc.Query(context.Background(), "docs", "q", 2)
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Fatalf("expected ErrRerankProviderError, got %v", err)
	}
}
