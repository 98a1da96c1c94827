// Package index implements index lifecycle operations.
package index

import (
	"context"
	"fmt"

	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
)

// Service handles index CRUD operations.
type Service struct {
	repo    Repository
	counter RecordCounter
}

// New creates an index service.
func New(repo Repository, counter RecordCounter) *Service {
	return &Service{repo: repo, counter: counter}
}

// Create validates and stores a new index.
func (s *Service) Create(ctx context.Context, name string, vectorDim int) (domcol.Collection, error) {
	col, err := domcol.New(name, vectorDim)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate index: %w: %w", domain.ErrInvalidName, err)
	}

	if err := s.repo.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create index: %w", err)
	}

	return col, nil
}

// Get retrieves an index by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	col, err := s.repo.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get index: %w", err)
	}
	return col, nil
}

// List returns all indexes in creation order.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return cols, nil
}

// Count returns the number of chunk records in an index.
func (s *Service) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.repo.Get(ctx, name); err != nil {
		return 0, fmt.Errorf("get index: %w", err)
	}

	n, err := s.counter.Count(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Delete removes an index together with all its records.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	return nil
}
