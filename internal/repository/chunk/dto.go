package chunk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbindex/kbindex/internal/db"
	"github.com/kbindex/kbindex/internal/domain"
	domchunk "github.com/kbindex/kbindex/internal/domain/chunk"
	"github.com/kbindex/kbindex/internal/domain/search"
)

// chunkToHash converts a domain Record into a flat map for HSET.
func chunkToHash(rec domchunk.Record, seq int64) map[string]string {
	return map[string]string{
		"__content":       rec.Content(),
		"__vector":        vectorToBytes(rec.Embedding()),
		"__seq":           strconv.FormatInt(seq, 10),
		"source_document": rec.SourceDocument(),
		"chunk_offset":    strconv.Itoa(rec.ChunkOffset()),
	}
}

// candidateFromEntry converts an FT.SEARCH hit into a search Candidate.
func candidateFromEntry(collection string, entry db.SearchEntry) (search.Candidate, error) {
	offset, err := strconv.Atoi(entry.Fields["chunk_offset"])
	if err != nil {
		return search.Candidate{}, fmt.Errorf("invalid chunk_offset: %w", err)
	}
	seq, err := strconv.ParseInt(entry.Fields["__seq"], 10, 64)
	if err != nil {
		return search.Candidate{}, fmt.Errorf("invalid __seq: %w", err)
	}

	return search.NewCandidate(
		extractChunkID(entry.Key, collection),
		entry.Fields["__content"],
		entry.Distance,
		entry.Fields["source_document"],
		offset,
		seq,
	), nil
}

func extractChunkID(key, collection string) string {
	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
	return strings.TrimPrefix(key, prefix)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
