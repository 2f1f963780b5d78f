package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
	"github.com/wangsibothunder/retrieval-hotness/internal/hnsw"
)

func corpusTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("document number %d about topic %d", i, i%5)
	}
	return texts
}

func buildIndex(t *testing.T, embedder embedding.Embedder, texts []string) *hnsw.Index {
	t.Helper()
	vectors, err := embedder.Embed(context.Background(), texts)
	require.NoError(t, err)

	ix := hnsw.New(embedder.Dimensions(), hnsw.DefaultConfig(), 1)
	require.NoError(t, ix.Build(context.Background(), vectors))
	return ix
}

func TestRunner_Run_PreservesQueryOrder(t *testing.T) {
	embedder := embedding.NewStaticEmbedder(32)
	corpus := corpusTexts(40)
	ix := buildIndex(t, embedder, corpus)

	queries := corpusTexts(40)
	r := New(embedder, ix, WithBatchSize(7))

	results, skipped, err := r.Run(context.Background(), queries, 3, 20)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, results, len(queries))

	for i, res := range results {
		assert.Equal(t, i, res.QueryID)
		assert.False(t, res.Failed)
		assert.Len(t, res.DocIDs, 3)
	}
}

func TestRunner_Run_EmbedderFailureRecordedNotFatal(t *testing.T) {
	embedder := embedding.NewStaticEmbedder(32)
	corpus := corpusTexts(20)
	ix := buildIndex(t, embedder, corpus)

	failing := &flakyEmbedder{Embedder: embedder, failOn: "poison"}
	queries := append(corpusTexts(4), "poison", "poison")
	queries = append(queries, corpusTexts(2)...)

	r := New(failing, ix, WithBatchSize(100))
	results, skipped, err := r.Run(context.Background(), queries, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, len(queries), skipped)
	for _, res := range results {
		assert.True(t, res.Failed)
		assert.Empty(t, res.DocIDs)
	}
}

func TestRunner_Run_EmptyQuerySet(t *testing.T) {
	embedder := embedding.NewStaticEmbedder(16)
	ix := buildIndex(t, embedder, corpusTexts(5))

	r := New(embedder, ix)
	results, skipped, err := r.Run(context.Background(), nil, 2, 10)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, results)
}

// flakyEmbedder fails the whole batch if any text in it equals failOn,
// exercising the "per-batch failure" contract (spec.md §6).
type flakyEmbedder struct {
	embedding.Embedder
	failOn string
}

func (f *flakyEmbedder) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	for _, t := range batch {
		if t == f.failOn {
			return nil, errors.New("embedder: simulated failure")
		}
	}
	return f.Embedder.Embed(ctx, batch)
}
