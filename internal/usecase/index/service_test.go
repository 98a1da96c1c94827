package index

import (
	"context"
	"errors"
	"testing"

	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
)

type mockRepo struct {
	createFn func(ctx context.Context, col domcol.Collection) error
	getFn    func(ctx context.Context, name string) (domcol.Collection, error)
	listFn   func(ctx context.Context) ([]domcol.Collection, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockRepo) Create(ctx context.Context, col domcol.Collection) error {
	if m.createFn != nil {
		return m.createFn(ctx, col)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return domcol.Reconstruct(name, 768, 1), nil
}

func (m *mockRepo) List(ctx context.Context) ([]domcol.Collection, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

type mockCounter struct {
	countFn func(ctx context.Context, name string) (int, error)
}

func (m *mockCounter) Count(ctx context.Context, name string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, name)
	}
	return 0, nil
}

func newTestService() (*Service, *mockRepo, *mockCounter) {
	repo := &mockRepo{}
	counter := &mockCounter{}
	return New(repo, counter), repo, counter
}

func TestCreate_HappyPath(t *testing.T) {
	svc, repo, _ := newTestService()

	var created domcol.Collection
	repo.createFn = func(_ context.Context, col domcol.Collection) error {
		created = col
		return nil
	}

	col, err := svc.Create(context.Background(), "docs", 768)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "docs" || col.VectorDim() != 768 {
		t.Errorf("unexpected collection: %s dim=%d", col.Name(), col.VectorDim())
	}
	if created.Name() != "docs" {
		t.Errorf("repo received %s", created.Name())
	}
}

func TestCreate_InvalidName(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.createFn = func(_ context.Context, _ domcol.Collection) error {
		t.Error("repo should not be called for invalid name")
		return nil
	}

	cases := []string{"", "has space", "päivä", "a/b", string(make([]byte, 70))}
	for _, name := range cases {
		_, err := svc.Create(context.Background(), name, 768)
		if !errors.Is(err, domain.ErrInvalidName) {
			t.Errorf("name %q: expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.createFn = func(_ context.Context, _ domcol.Collection) error {
		return domain.ErrAlreadyExists
	}

	_, err := svc.Create(context.Background(), "docs", 768)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCount_HappyPath(t *testing.T) {
	svc, _, counter := newTestService()
	counter.countFn = func(_ context.Context, name string) (int, error) {
		if name != "docs" {
			t.Errorf("unexpected name: %s", name)
		}
		return 12, nil
	}

	n, err := svc.Count(context.Background(), "docs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("expected 12, got %d", n)
	}
}

func TestCount_IndexMissing(t *testing.T) {
	svc, repo, counter := newTestService()
	repo.getFn = func(_ context.Context, _ string) (domcol.Collection, error) {
		return domcol.Collection{}, domain.ErrNotFound
	}
	counter.countFn = func(_ context.Context, _ string) (int, error) {
		t.Error("counter should not be called for missing index")
		return 0, nil
	}

	_, err := svc.Count(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.listFn = func(_ context.Context) ([]domcol.Collection, error) {
		return []domcol.Collection{
			domcol.Reconstruct("a", 768, 1),
			domcol.Reconstruct("b", 768, 2),
		}, nil
	}

	cols, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("expected 2 indexes, got %d", len(cols))
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.deleteFn = func(_ context.Context, _ string) error {
		return domain.ErrNotFound
	}

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
