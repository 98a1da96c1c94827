package collection

import (
	"fmt"
	"strconv"

	domcol "github.com/kbindex/kbindex/internal/domain/collection"
)

// collectionToHash converts a domain Collection to a map for HSET.
func collectionToHash(col domcol.Collection) map[string]string {
	return map[string]string{
		"name":       col.Name(),
		"vector_dim": strconv.Itoa(col.VectorDim()),
		"created_at": strconv.FormatInt(col.CreatedAt(), 10),
	}
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (domcol.Collection, error) {
	name := m["name"]
	if name == "" {
		return domcol.Collection{}, fmt.Errorf("collection hash missing name")
	}

	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}

	vectorDim, err := strconv.Atoi(m["vector_dim"])
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("invalid vector_dim: %w", err)
	}

	return domcol.Reconstruct(name, vectorDim, createdAt), nil
}
