package domain

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubEmbedder struct {
	failOn string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if text == s.failOn {
		return EmbeddingResult{}, errors.New("boom")
	}
	return EmbeddingResult{
		Embedding:   []float32{float32(len(text))},
		TotalTokens: len(text),
	}, nil
}

func TestBatchFallback_PreservesOrder(t *testing.T) {
	texts := []string{"a", "bb", "ccc"}

	res, err := BatchFallback(context.Background(), &stubEmbedder{}, texts)
	if err != nil {
		t.Fatalf("BatchFallback failed: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	for i, text := range texts {
		if res.Embeddings[i][0] != float32(len(text)) {
			t.Errorf("embedding[%d] out of order", i)
		}
	}
	if res.TotalTokens != 6 {
		t.Errorf("TotalTokens = %d, want 6", res.TotalTokens)
	}
}

func TestBatchFallback_PropagatesError(t *testing.T) {
	_, err := BatchFallback(context.Background(), &stubEmbedder{failOn: "bb"}, []string{"a", "bb"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "fallback embed [1]") {
		t.Errorf("error should carry the failing index: %v", err)
	}
}
