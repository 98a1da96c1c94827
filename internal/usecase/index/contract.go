package index

import (
	"context"

	domcol "github.com/kbindex/kbindex/internal/domain/collection"
)

// Repository defines the storage contract for index metadata.
type Repository interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
}

// RecordCounter counts stored chunk records per index.
type RecordCounter interface {
	Count(ctx context.Context, collectionName string) (int, error)
}
