// Package ingest implements document encoding and batch ingestion.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kbindex/kbindex/internal/domain"
	domchunk "github.com/kbindex/kbindex/internal/domain/chunk"
	domingest "github.com/kbindex/kbindex/internal/domain/ingest"
	"github.com/kbindex/kbindex/internal/metrics"
)

// DefaultWorkers is the default batch worker pool size.
const DefaultWorkers = 4

// DefaultPatterns are the file globs used when a batch request names none.
var DefaultPatterns = []string{"*.md", "*.txt"}

// Embedder vectorizes chunk texts in provider batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Receipt summarizes a synchronous single-document ingestion.
type Receipt struct {
	ChunkCount  int
	TokenCounts []int
}

// BatchReceipt acknowledges an accepted asynchronous batch.
type BatchReceipt struct {
	QueuedDocuments int
}

// Service handles document ingestion into indexes.
type Service struct {
	colls     CollectionReader
	chunks    ChunkWriter
	segmenter Segmenter
	source    DocumentSource
	embed     Embedder
	workers   int
	logger    *zap.Logger
}

// New creates an ingest service.
func New(
	colls CollectionReader, chunks ChunkWriter,
	segmenter Segmenter, source DocumentSource,
	embed Embedder, logger *zap.Logger,
) *Service {
	return &Service{
		colls:     colls,
		chunks:    chunks,
		segmenter: segmenter,
		source:    source,
		embed:     embed,
		workers:   DefaultWorkers,
		logger:    logger,
	}
}

// WithWorkers configures the batch worker pool size.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// EncodeDocument reads, segments, embeds and stores one document
// synchronously. All chunks of the document land in one transaction.
func (s *Service) EncodeDocument(ctx context.Context, indexName, documentPath string) (Receipt, error) {
	col, err := s.colls.Get(ctx, indexName)
	if err != nil {
		return Receipt{}, fmt.Errorf("get index: %w", err)
	}

	text, err := s.source.ReadDocument(documentPath)
	if err != nil {
		return Receipt{}, fmt.Errorf("read document: %w", err)
	}

	chunks := s.segmenter.Segment(text)
	if len(chunks) == 0 {
		return Receipt{}, fmt.Errorf("document %s has no indexable content: %w",
			documentPath, domain.ErrInvalidDocument)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedded, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return Receipt{}, fmt.Errorf("embed chunks: %w", err)
	}

	records := make([]domchunk.Record, len(chunks))
	tokenCounts := make([]int, len(chunks))
	for i, c := range chunks {
		if len(embedded.Embeddings[i]) != col.VectorDim() {
			return Receipt{}, fmt.Errorf(
				"embedding dimension %d does not match index dimension %d: %w",
				len(embedded.Embeddings[i]), col.VectorDim(), domain.ErrVectorDimMismatch)
		}
		rec, err := domchunk.New(c.Text, embedded.Embeddings[i], documentPath, c.Offset)
		if err != nil {
			return Receipt{}, fmt.Errorf("build chunk record %d: %w", i, err)
		}
		records[i] = rec
		tokenCounts[i] = c.Tokens
	}

	if _, err := s.chunks.Add(ctx, col.Name(), records); err != nil {
		return Receipt{}, fmt.Errorf("store chunks: %w", err)
	}

	metrics.IngestChunksTotal.Add(float64(len(records)))

	return Receipt{ChunkCount: len(records), TokenCounts: tokenCounts}, nil
}

// EncodeBatch lists matching documents, then processes them in the
// background and returns immediately. Per-document failures are logged
// and counted; they never affect other documents or the acknowledgment
// already sent to the caller.
func (s *Service) EncodeBatch(ctx context.Context, indexName, dir string, patterns []string) (BatchReceipt, error) {
	if _, err := s.colls.Get(ctx, indexName); err != nil {
		return BatchReceipt{}, fmt.Errorf("get index: %w", err)
	}

	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	paths, err := s.source.ListDocuments(dir, patterns)
	if err != nil {
		return BatchReceipt{}, fmt.Errorf("list documents: %w", err)
	}

	// Detached from the request context: the batch outlives the response.
	go s.processBatch(context.Background(), indexName, paths)

	return BatchReceipt{QueuedDocuments: len(paths)}, nil
}

func (s *Service) processBatch(ctx context.Context, indexName string, paths []string) {
	start := time.Now()
	results := make([]domingest.Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			receipt, err := s.EncodeDocument(ctx, indexName, path)
			if err != nil {
				results[i] = domingest.NewError(path, err)
				return nil
			}
			results[i] = domingest.NewOK(path, receipt.ChunkCount)
			return nil
		})
	}
	_ = g.Wait()

	var ok, failed int
	for _, res := range results {
		switch res.Status() {
		case domingest.StatusOK:
			ok++
			metrics.IngestDocumentsTotal.WithLabelValues("ok").Inc()
			s.logger.Info("document ingested",
				zap.String("index", indexName),
				zap.String("document", res.Document()),
				zap.Int("chunks", res.Chunks()))
		case domingest.StatusError:
			failed++
			metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
			s.logger.Error("document ingestion failed",
				zap.String("index", indexName),
				zap.String("document", res.Document()),
				zap.Error(res.Err()))
		}
	}

	metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("batch ingestion finished",
		zap.String("index", indexName),
		zap.Int("documents", len(paths)),
		zap.Int("succeeded", ok),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}
