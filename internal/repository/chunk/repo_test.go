package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/kbindex/kbindex/internal/db"
	"github.com/kbindex/kbindex/internal/domain"
	domchunk "github.com/kbindex/kbindex/internal/domain/chunk"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiTxFn func(ctx context.Context, items []db.HashSetItem) error
	incrByFn      func(ctx context.Context, key string, n int64) (int64, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) HSetMultiTx(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiTxFn != nil {
		return m.hsetMultiTxFn(ctx, items)
	}
	return nil
}

func (m *mockStore) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, n)
	}
	return n, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms)
	n := 0
	repo.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return repo, ms
}

func testRecords(t *testing.T, n int) []domchunk.Record {
	t.Helper()
	records := make([]domchunk.Record, n)
	for i := range records {
		rec, err := domchunk.New(fmt.Sprintf("chunk %d", i), []float32{float32(i), 1}, "doc.md", i*10)
		if err != nil {
			t.Fatalf("build record: %v", err)
		}
		records[i] = rec
	}
	return records
}

// --- Add ---

func TestAdd_AssignsContiguousSeqBlock(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.incrByFn = func(_ context.Context, key string, n int64) (int64, error) {
		if key != "kbindex:seq:docs" {
			t.Errorf("unexpected seq key: %s", key)
		}
		if n != 3 {
			t.Errorf("expected block of 3, got %d", n)
		}
		return 10, nil
	}

	var stored []db.HashSetItem
	ms.hsetMultiTxFn = func(_ context.Context, items []db.HashSetItem) error {
		stored = items
		return nil
	}

	ids, err := repo.Add(ctx, "docs", testRecords(t, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 items, got %d", len(stored))
	}

	// block end 10, size 3 → seqs 8, 9, 10
	for i, item := range stored {
		wantSeq := strconv.Itoa(8 + i)
		if item.Fields["__seq"] != wantSeq {
			t.Errorf("item %d: __seq = %s, want %s", i, item.Fields["__seq"], wantSeq)
		}
		if item.Key != "kbindex:docs:"+ids[i] {
			t.Errorf("item %d: key = %s", i, item.Key)
		}
		if item.Fields["source_document"] != "doc.md" {
			t.Errorf("item %d: source_document = %s", i, item.Fields["source_document"])
		}
	}
}

func TestAdd_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.incrByFn = func(_ context.Context, _ string, _ int64) (int64, error) {
		t.Fatal("INCRBY should not be called for empty input")
		return 0, nil
	}

	ids, err := repo.Add(context.Background(), "docs", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Errorf("expected nil ids, got %v", ids)
	}
}

func TestAdd_TxError(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.hsetMultiTxFn = func(_ context.Context, _ []db.HashSetItem) error {
		return errors.New("connection lost")
	}

	if _, err := repo.Add(context.Background(), "docs", testRecords(t, 2)); err == nil {
		t.Fatal("expected error")
	}
}

// --- SearchKNN ---

func knnEntry(id, content string, distance float64, seq int64) db.SearchEntry {
	return db.SearchEntry{
		Key:      "kbindex:docs:" + id,
		Distance: distance,
		Fields: map[string]string{
			"__content":       content,
			"source_document": "doc.md",
			"chunk_offset":    "0",
			"__seq":           strconv.FormatInt(seq, 10),
		},
	}
}

func TestSearchKNN_TieBreaksBySeq(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "kbindex:docs:idx" {
			t.Errorf("unexpected index: %s", q.IndexName)
		}
		return &db.SearchResult{
			Total: 3,
			Entries: []db.SearchEntry{
				knnEntry("a", "first", 0.5, 7),
				knnEntry("b", "second", 0.5, 3),
				knnEntry("c", "third", 0.1, 9),
			},
		}, nil
	}

	cands, err := repo.SearchKNN(context.Background(), "docs", []float32{0.1}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	// distance asc, ties by seq asc: c (0.1), b (0.5, seq 3), a (0.5, seq 7)
	if cands[0].ID() != "c" || cands[1].ID() != "b" || cands[2].ID() != "a" {
		t.Errorf("unexpected order: %s, %s, %s", cands[0].ID(), cands[1].ID(), cands[2].ID())
	}
}

func TestSearchKNN_UnknownIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, db.ErrIndexNotFound
	}

	_, err := repo.SearchKNN(context.Background(), "missing", []float32{0.1}, 5)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchKNN_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{}, nil
	}

	cands, err := repo.SearchKNN(context.Background(), "docs", []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
}

// --- Count ---

func TestCount(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchCountFn = func(_ context.Context, index, query string) (int, error) {
		if index != "kbindex:docs:idx" || query != "*" {
			t.Errorf("unexpected count query: %s %s", index, query)
		}
		return 17, nil
	}

	n, err := repo.Count(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 17 {
		t.Errorf("expected 17, got %d", n)
	}
}

func TestCount_UnknownIndex(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchCountFn = func(_ context.Context, _, _ string) (int, error) {
		return 0, db.ErrIndexNotFound
	}

	_, err := repo.Count(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
