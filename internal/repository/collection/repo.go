// Package collection persists index metadata and manages the backing
// FT index per collection.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kbindex/kbindex/internal/db"
	"github.com/kbindex/kbindex/internal/domain"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
)

// store is the consumer interface for collections (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase index.Repository.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a collection: HSET metadata then FT.CREATE index.
// On FT.CREATE failure, rolls back the HSET via DEL.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	name := col.Name()

	metaKey := metaKey(name)
	exists, err := r.store.Exists(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	indexDef := buildIndex(name, col.VectorDim())
	hashData := collectionToHash(col)

	if err := r.store.HSet(ctx, metaKey, hashData); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}

	// FT.CREATE — rollback HSET on error
	if err := r.store.CreateIndex(ctx, indexDef); err != nil {
		cleanupErr := r.store.Del(ctx, metaKey)
		if errors.Is(err, db.ErrIndexExists) {
			return errors.Join(domain.ErrAlreadyExists, cleanupErr)
		}
		return errors.Join(err, cleanupErr)
	}

	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	m, err := r.store.HGetAll(ctx, metaKey(name))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return domcol.Collection{}, domain.ErrNotFound
	}

	return collectionFromHash(m)
}

// List returns all collections sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}
	if len(keys) == 0 {
		return []domcol.Collection{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi collections: %w", err)
	}

	collections := make([]domcol.Collection, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		col, err := collectionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse collection %s: %w", keys[i], err)
		}
		collections = append(collections, col)
	}

	sort.Slice(collections, func(i, j int) bool {
		if collections[i].CreatedAt() != collections[j].CreatedAt() {
			return collections[i].CreatedAt() < collections[j].CreatedAt()
		}
		return collections[i].Name() < collections[j].Name()
	})

	return collections, nil
}

// Delete removes a collection: backup metadata, DEL hash, then
// FT.DROPINDEX DD which drops every chunk record under the prefix.
// On FT.DROPINDEX failure, restores the metadata hash.
func (r *Repo) Delete(ctx context.Context, name string) error {
	metaKey := metaKey(name)

	metaBackup, err := r.store.HGetAll(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(metaBackup) == 0 {
		return domain.ErrNotFound
	}

	idxName := indexName(name)
	idxExists, err := r.store.IndexExists(ctx, idxName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if !idxExists {
		return domain.ErrNotFound
	}

	if err := r.store.Del(ctx, metaKey); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}

	// FT.DROPINDEX DD — rollback HSET on error
	if err := r.store.DropIndex(ctx, idxName); err != nil {
		cleanupErr := r.store.HSet(ctx, metaKey, metaBackup)
		return errors.Join(err, cleanupErr)
	}

	// The insertion counter lives outside the indexed prefix; drop it
	// explicitly so a re-created collection starts fresh.
	if err := r.store.Del(ctx, seqKey(name)); err != nil {
		return fmt.Errorf("del seq counter %s: %w", name, err)
	}

	return nil
}

func buildIndex(name string, vectorDim int) *db.IndexDefinition {
	return &db.IndexDefinition{
		Name:        indexName(name),
		StorageType: db.StorageHash,
		Prefixes:    []string{collectionPrefix(name)},
		Fields: []db.IndexField{
			{Name: "source_document", Type: db.IndexFieldTag},
			{Name: "chunk_offset", Type: db.IndexFieldNumeric},
			{Name: "__seq", Type: db.IndexFieldNumeric},
			{
				Name: "__vector",
				Type: db.IndexFieldVector,
				// FLAT + L2 keeps KNN exact so result order is reproducible.
				VectorAlgo:     db.VectorFlat,
				VectorDistance: db.DistanceL2,
				VectorDim:      vectorDim,
			},
		},
	}
}

// Redis key patterns: kbindex:collection:{name}, kbindex:{name}:idx,
// kbindex:{name}:, kbindex:seq:{name}

func metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

func collectionPrefix(name string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, name)
}

func seqKey(name string) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, name)
}
