// Package chunk persists chunk records and runs KNN retrieval over a
// collection's FT index.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kbindex/kbindex/internal/db"
	"github.com/kbindex/kbindex/internal/domain"
	domchunk "github.com/kbindex/kbindex/internal/domain/chunk"
	"github.com/kbindex/kbindex/internal/domain/search"
)

// store is the consumer interface for chunk records (ISP).
type store interface {
	HSetMultiTx(ctx context.Context, items []db.HashSetItem) error
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the chunk persistence contracts of the ingest and
// query usecases.
type Repo struct {
	store store
	newID func() string
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s, newID: uuid.NewString}
}

// Add stores all records of one document in a single transaction.
// Sequence numbers are allocated as one contiguous block so records of
// the same document sort in emission order.
func (r *Repo) Add(ctx context.Context, collectionName string, records []domchunk.Record) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	last, err := r.store.IncrBy(ctx, seqKey(collectionName), int64(len(records)))
	if err != nil {
		return nil, fmt.Errorf("allocate seq block %s: %w", collectionName, err)
	}
	first := last - int64(len(records)) + 1

	ids := make([]string, len(records))
	items := make([]db.HashSetItem, len(records))
	for i := range records {
		ids[i] = r.newID()
		items[i] = db.HashSetItem{
			Key:    chunkKey(collectionName, ids[i]),
			Fields: chunkToHash(records[i], first+int64(i)),
		}
	}

	if err := r.store.HSetMultiTx(ctx, items); err != nil {
		return nil, fmt.Errorf("store chunks %s: %w", collectionName, err)
	}

	return ids, nil
}

// SearchKNN returns the k nearest candidates by L2 distance. Ties on
// distance break by ascending insertion sequence, so repeated queries
// over unchanged data return identical order.
func (r *Repo) SearchKNN(ctx context.Context, collectionName string, vector []float32, k int) ([]search.Candidate, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collectionName),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"__content", "source_document", "chunk_offset", "__seq"},
	})
	if err != nil {
		if isUnknownIndex(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("knn search %s: %w", collectionName, err)
	}

	candidates := make([]search.Candidate, 0, len(result.Entries))
	for _, entry := range result.Entries {
		cand, err := candidateFromEntry(collectionName, entry)
		if err != nil {
			return nil, fmt.Errorf("parse candidate %s: %w", entry.Key, err)
		}
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Distance() != candidates[j].Distance() {
			return candidates[i].Distance() < candidates[j].Distance()
		}
		return candidates[i].Seq() < candidates[j].Seq()
	})

	return candidates, nil
}

// Count returns the number of stored chunk records in a collection.
func (r *Repo) Count(ctx context.Context, collectionName string) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(collectionName), "*")
	if err != nil {
		if isUnknownIndex(err) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("search count %s: %w", collectionName, err)
	}
	return n, nil
}

func isUnknownIndex(err error) bool {
	return errors.Is(err, db.ErrIndexNotFound)
}

// Key patterns: kbindex:{name}:{uuid}, kbindex:{name}:idx, kbindex:seq:{name}

func chunkKey(collection, id string) string {
	return fmt.Sprintf("%s%s:%s", domain.KeyPrefix, collection, id)
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func seqKey(collection string) string {
	return fmt.Sprintf("%sseq:%s", domain.KeyPrefix, collection)
}
