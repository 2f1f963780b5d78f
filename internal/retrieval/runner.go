// Package retrieval drives a query workload through an embedder and an
// HNSW index, producing one ordered result sequence per query in
// workload order (spec.md §4.3).
package retrieval

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
	"github.com/wangsibothunder/retrieval-hotness/internal/hnsw"
)

// Result is one query's outcome: its position in the workload and the
// ordered sequence of doc ids the index returned for it. A query whose
// embedding failed has an empty DocIDs and Failed set.
type Result struct {
	QueryID int
	DocIDs  []int
	Scores  []float32
	Failed  bool
}

// Index is the subset of hnsw.Index the runner depends on.
type Index interface {
	SearchBatch(ctx context.Context, queries [][]float32, k, ef int) ([][]int, [][]float32, error)
}

var _ Index = (*hnsw.Index)(nil)

// Runner drives batched queries through an Embedder and an Index.
type Runner struct {
	embedder embedding.Embedder
	index    Index

	batchSize   int
	parallelism int
}

// Option configures a Runner.
type Option func(*Runner)

// defaultBatchSize is the number of query texts embedded per call to the
// embedder collaborator.
const defaultBatchSize = 256

// defaultParallelism bounds concurrent in-flight batches.
const defaultParallelism = 8

// WithBatchSize overrides the default query batch size.
func WithBatchSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithParallelism overrides the default number of batches embedded and
// searched concurrently.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// New creates a Runner over embedder and index.
func New(embedder embedding.Embedder, index Index, opts ...Option) *Runner {
	r := &Runner{
		embedder:    embedder,
		index:       index,
		batchSize:   defaultBatchSize,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run embeds and searches every query in queries, returning one Result
// per query in workload order regardless of internal batch
// parallelism (spec.md §4.3 "Ordering"). skipped counts queries whose
// batch failed at the embedder; they are not fatal to the run (spec.md
// §4.3 "Failure").
func (r *Runner) Run(ctx context.Context, queries []string, k, ef int) (results []Result, skipped int, err error) {
	n := len(queries)
	results = make([]Result, n)
	if n == 0 {
		return results, 0, nil
	}

	var skippedCount int64

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.parallelism)
	var resultsMu sync.Mutex

	for start := 0; start < n; start += r.batchSize {
		start := start
		end := start + r.batchSize
		if end > n {
			end = n
		}

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			batch := queries[start:end]
			vectors, embedErr := r.embedder.Embed(gctx, batch)
			if embedErr != nil {
				atomic.AddInt64(&skippedCount, int64(len(batch)))
				resultsMu.Lock()
				for i := range batch {
					results[start+i] = Result{QueryID: start + i, Failed: true}
				}
				resultsMu.Unlock()
				return nil
			}

			ids, scores, searchErr := r.index.SearchBatch(gctx, vectors, k, ef)
			if searchErr != nil {
				return searchErr
			}

			resultsMu.Lock()
			for i := range batch {
				results[start+i] = Result{QueryID: start + i, DocIDs: ids[i], Scores: scores[i]}
			}
			resultsMu.Unlock()
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return nil, 0, waitErr
	}

	return results, int(skippedCount), nil
}
