package graphstats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangsibothunder/retrieval-hotness/internal/aggregate"
	"github.com/wangsibothunder/retrieval-hotness/internal/hnsw"
)

func buildTestIndex(t *testing.T, n, dim int) *hnsw.Index {
	t.Helper()
	rows := make([][]float32, n)
	for i := range rows {
		v := make([]float32, dim)
		v[i%dim] = 1
		rows[i] = v
	}
	ix := hnsw.New(dim, hnsw.DefaultConfig(), int64(n))
	require.NoError(t, ix.Build(context.Background(), rows))
	return ix
}

func TestInspect_HeadStatsAndHistogram(t *testing.T) {
	ix := buildTestIndex(t, 40, 8)

	a := aggregate.New([]int{2})
	// doc 0 and doc 1 dominate the workload; every other doc comes from a
	// single query (counted twice there).
	for i := 0; i < 10; i++ {
		a.Consume([]int{0, 1})
	}
	for id := 2; id < 40; id++ {
		a.Consume([]int{id, id})
	}

	report, err := Inspect(a.DocFreqRanked(), ix, 0.1)
	require.NoError(t, err)

	require.NotEmpty(t, report.Head)
	assert.GreaterOrEqual(t, report.MeanDegreeAll, 0.0)
	assert.NotEmpty(t, report.DegreeHistogram)

	sumHist := 0
	for _, b := range report.DegreeHistogram {
		sumHist += b.Count
	}
	assert.Equal(t, ix.N(), sumHist)
}

func TestInspect_EmptyRankingProducesEmptyHead(t *testing.T) {
	ix := buildTestIndex(t, 10, 4)

	report, err := Inspect(nil, ix, 0.1)
	require.NoError(t, err)
	assert.Empty(t, report.Head)
	assert.Zero(t, report.HighLayerFractionHead)
	assert.Zero(t, report.MeanDegreeHead)
}

func TestRankFrequencyPearson_DecreasingCountsIsStronglyNegative(t *testing.T) {
	// Strictly decreasing counts across ranks should anti-correlate
	// ln(rank) with ln(frequency).
	entries := []aggregate.RankedEntry{
		{Key: []int{0}, Count: 1000},
		{Key: []int{1}, Count: 500},
		{Key: []int{2}, Count: 250},
		{Key: []int{3}, Count: 125},
		{Key: []int{4}, Count: 60},
		{Key: []int{5}, Count: 30},
	}
	corr := rankFrequencyPearson(entries)
	assert.Less(t, corr, -0.9)
}

func TestInspect_OutOfRangeDocIDSurfacesError(t *testing.T) {
	ix := buildTestIndex(t, 5, 4)
	ranked := []aggregate.RankedEntry{{Key: []int{99}, Count: 1}}

	_, err := Inspect(ranked, ix, 1.0)
	require.Error(t, err)
}
