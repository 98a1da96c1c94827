package ingest

import (
	"context"

	domchunk "github.com/kbindex/kbindex/internal/domain/chunk"
	domcol "github.com/kbindex/kbindex/internal/domain/collection"
	"github.com/kbindex/kbindex/internal/segment"
)

// CollectionReader resolves index metadata.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// ChunkWriter persists chunk records.
type ChunkWriter interface {
	Add(ctx context.Context, collectionName string, records []domchunk.Record) ([]string, error)
}

// Segmenter splits document text into token-bounded chunks.
type Segmenter interface {
	Segment(text string) []segment.Chunk
}

// DocumentSource resolves document content and directory listings.
type DocumentSource interface {
	ReadDocument(path string) (string, error)
	ListDocuments(dir string, patterns []string) ([]string, error)
}
