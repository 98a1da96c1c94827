// Package collection holds the index (collection) aggregate.
package collection

import (
	"fmt"
	"regexp"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// reservedNames are key-scheme namespaces: a collection named
// "collection" or "seq" would claim the metadata or counter key prefix
// and its index drop would destroy other collections' data.
var reservedNames = map[string]struct{}{
	"collection": {},
	"seq":        {},
}

// Collection is a named durable set of chunk records sharing one fixed
// vector dimension (immutable value object).
type Collection struct {
	name      string
	vectorDim int
	createdAt int64
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("index name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("index name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("index name must be alphanumeric with underscores and hyphens")
	}
	if _, ok := reservedNames[name]; ok {
		return fmt.Errorf("index name %q is reserved", name)
	}
	return nil
}

// New validates and creates a Collection.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. VectorDim: > 0.
func New(name string, vectorDim int) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if vectorDim <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}

	return Collection{
		name:      name,
		vectorDim: vectorDim,
		createdAt: time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name string, vectorDim int, createdAt int64) Collection {
	return Collection{name: name, vectorDim: vectorDim, createdAt: createdAt}
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// VectorDim returns the fixed embedding dimension.
func (c Collection) VectorDim() int { return c.vectorDim }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }
