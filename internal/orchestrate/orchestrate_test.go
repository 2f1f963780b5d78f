package orchestrate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
)

func sampleCorpus(n int) []string {
	texts := make([]string, n)
	topics := []string{"cats", "dogs", "rockets", "oceans", "mountains"}
	for i := range texts {
		texts[i] = fmt.Sprintf("a document about %s, entry %d", topics[i%len(topics)], i)
	}
	return texts
}

func TestOrchestrator_Run_ProducesConsistentBundle(t *testing.T) {
	store, err := embedding.NewStore(t.TempDir())
	require.NoError(t, err)

	embedder := embedding.NewStaticEmbedder(24)
	o := New(store, embedder, WithSeed(7))

	corpus := sampleCorpus(30)
	queries := sampleCorpus(30)[:12]

	params := RunParams{
		CorpusID:   "corpus-a",
		ModelID:    embedder.ModelID(),
		QuerySetID: "queries-a",
		K:          3,
	}

	bundle, err := o.Run(context.Background(), corpus, queries, params)
	require.NoError(t, err)

	require.NotEmpty(t, bundle.RunID)
	assert.Equal(t, len(corpus), bundle.Index.N)
	assert.Equal(t, 24, bundle.Index.D)
	assert.GreaterOrEqual(t, bundle.Index.EntryPoint, 0)
	assert.Zero(t, bundle.SkippedQueries)

	wantTotal := int64(len(queries)-bundle.SkippedQueries) * int64(params.K)
	assert.Equal(t, wantTotal, bundle.DocFreq.Total)

	for n, axis := range bundle.Ngram {
		wantObservations := int64(0)
		if params.K-n+1 > 0 {
			wantObservations = int64(len(queries)) * int64(params.K-n+1)
		}
		assert.Equal(t, wantObservations, axis.Total, "n=%d", n)
	}

	assert.Equal(t, int64(len(queries)), bundle.OrderedCombo.Total)
	assert.Equal(t, int64(len(queries)), bundle.UnorderedCombo.Total)

	assert.NotNil(t, bundle.GraphReport)
	assert.Len(t, bundle.Index.LayerCounts, bundle.Index.MaxLayer+1)
}

func TestOrchestrator_Run_EmptyQuerySetSucceeds(t *testing.T) {
	store, err := embedding.NewStore(t.TempDir())
	require.NoError(t, err)
	embedder := embedding.NewStaticEmbedder(16)
	o := New(store, embedder)

	bundle, err := o.Run(context.Background(), sampleCorpus(10), nil, RunParams{K: 2})
	require.NoError(t, err)

	assert.Zero(t, bundle.DocFreq.Total)
	assert.Zero(t, bundle.DocFreq.Concentration)
	assert.Empty(t, bundle.DocFreq.Ranked)
}

func TestOrchestrator_Run_ReusesPersistedEmbeddings(t *testing.T) {
	dir := t.TempDir()
	store, err := embedding.NewStore(dir)
	require.NoError(t, err)
	embedder := embedding.NewStaticEmbedder(16)

	o := New(store, embedder)
	corpus := sampleCorpus(15)
	params := RunParams{CorpusID: "reuse", ModelID: embedder.ModelID(), K: 2}

	first, err := o.Run(context.Background(), corpus, corpus[:5], params)
	require.NoError(t, err)

	store2, err := embedding.NewStore(dir)
	require.NoError(t, err)
	o2 := New(store2, embedder)
	second, err := o2.Run(context.Background(), corpus, corpus[:5], params)
	require.NoError(t, err)

	assert.Equal(t, first.Index.N, second.Index.N)
	assert.Equal(t, first.DocFreq.Total, second.DocFreq.Total)
}
