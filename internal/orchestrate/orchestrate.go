// Package orchestrate composes the embedding store, HNSW index,
// retrieval runner, frequency aggregator, and graph inspector into a
// single (corpus, query-set, k) run, returning a typed result bundle
// for the excluded reporting layer to render (spec.md §4.6).
package orchestrate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wangsibothunder/retrieval-hotness/internal/aggregate"
	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
	"github.com/wangsibothunder/retrieval-hotness/internal/graphstats"
	"github.com/wangsibothunder/retrieval-hotness/internal/hnsw"
	"github.com/wangsibothunder/retrieval-hotness/internal/retrieval"
)

// defaultNgramSizes is spec.md's default n-gram size set.
var defaultNgramSizes = []int{2, 3, 4}

// defaultPHead is spec.md's default head fraction for concentration and
// graph-inspection reporting.
const defaultPHead = 0.10

// RunParams parameterizes one run, matching the command surface named
// in spec.md §6.
type RunParams struct {
	CorpusID   string
	ModelID    string
	QuerySetID string
	K          int
	EfSearch   int
	PHead      float64
	NgramSizes []int
}

func (p RunParams) withDefaults() RunParams {
	if p.PHead <= 0 {
		p.PHead = defaultPHead
	}
	if len(p.NgramSizes) == 0 {
		p.NgramSizes = defaultNgramSizes
	}
	if p.EfSearch <= 0 {
		p.EfSearch = hnsw.DefaultEfSearch
	}
	return p
}

// AxisResult bundles one frequency axis's ranked distribution, its
// total observation count, and its concentration at RunParams.PHead.
type AxisResult struct {
	Ranked        []aggregate.RankedEntry
	Total         int64
	Concentration float64
}

// IndexSummary is the global HNSW structure summary named in
// spec.md §4.6.
type IndexSummary struct {
	N               int
	D               int
	MaxLayer        int
	EntryPoint      int
	LayerCounts     []int
	MeanDegree      float64
	DegreeHistogram []graphstats.DegreeHistogramBucket
}

// ResultBundle is the Orchestrator's output: ranked distributions for
// every axis, their concentration values, the layer/degree table for
// the head set, and the global index summary (spec.md §4.6).
type ResultBundle struct {
	RunID  string
	Params RunParams

	DocFreq        AxisResult
	Ngram          map[int]AxisResult
	OrderedCombo   AxisResult
	UnorderedCombo AxisResult

	GraphReport *graphstats.Report
	Index       IndexSummary

	SkippedQueries int
}

// Orchestrator composes a run over a shared embedding store and
// embedder. Build parameters for the HNSW index it builds are fixed at
// construction time.
type Orchestrator struct {
	store    *embedding.Store
	embedder embedding.Embedder
	hnswCfg  hnsw.Config
	seed     int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHNSWConfig overrides the default HNSW build parameters.
func WithHNSWConfig(cfg hnsw.Config) Option {
	return func(o *Orchestrator) { o.hnswCfg = cfg }
}

// WithSeed overrides the default level-assignment seed, changing
// (deterministically) which graph a given corpus builds.
func WithSeed(seed int64) Option {
	return func(o *Orchestrator) { o.seed = seed }
}

// New creates an Orchestrator over store and embedder.
func New(store *embedding.Store, embedder embedding.Embedder, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		embedder: embedder,
		hnswCfg:  hnsw.DefaultConfig(),
		seed:     1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one (corpus, query-set, k) run: loads or builds the
// embedding matrix, builds the HNSW index over it, drives the query
// workload through the runner, aggregates the result sequences across
// every axis, inspects the graph against the DocFreq ranking, and
// returns the composed bundle (spec.md §4.6, data-flow diagram in §2).
func (o *Orchestrator) Run(ctx context.Context, corpusTexts, queryTexts []string, params RunParams) (*ResultBundle, error) {
	if params.EfSearch <= 0 {
		params.EfSearch = o.hnswCfg.EfSearch
	}
	params = params.withDefaults()

	matrix, err := o.store.GetOrBuild(ctx, params.CorpusID, o.embedder.ModelID(), corpusTexts, o.embedder)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: load or build embeddings: %w", err)
	}

	idx := hnsw.New(matrix.D, o.hnswCfg, o.seed)
	rows := make([][]float32, matrix.N)
	for i := 0; i < matrix.N; i++ {
		rows[i] = matrix.Row(i)
	}
	if err := idx.Build(ctx, rows); err != nil {
		return nil, fmt.Errorf("orchestrate: build index: %w", err)
	}

	runner := retrieval.New(o.embedder, idx)
	results, skipped, err := runner.Run(ctx, queryTexts, params.K, params.EfSearch)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: run queries: %w", err)
	}

	agg := aggregate.New(params.NgramSizes)
	for _, r := range results {
		agg.Consume(r.DocIDs)
	}

	docFreqRanked := agg.DocFreqRanked()
	graphReport, err := graphstats.Inspect(docFreqRanked, idx, params.PHead)
	if err != nil {
		return nil, fmt.Errorf("orchestrate: inspect graph: %w", err)
	}

	ngramResults := make(map[int]AxisResult, len(params.NgramSizes))
	for _, n := range params.NgramSizes {
		ranked := agg.NgramRanked(n)
		total := agg.NgramTotal(n)
		ngramResults[n] = AxisResult{
			Ranked:        ranked,
			Total:         total,
			Concentration: aggregate.Concentration(ranked, total, params.PHead),
		}
	}

	bundle := &ResultBundle{
		RunID:  uuid.NewString(),
		Params: params,
		DocFreq: AxisResult{
			Ranked:        docFreqRanked,
			Total:         agg.DocFreqTotal(),
			Concentration: aggregate.Concentration(docFreqRanked, agg.DocFreqTotal(), params.PHead),
		},
		Ngram: ngramResults,
		OrderedCombo: AxisResult{
			Ranked:        agg.OrderedComboRanked(),
			Total:         agg.OrderedComboTotal(),
			Concentration: aggregate.Concentration(agg.OrderedComboRanked(), agg.OrderedComboTotal(), params.PHead),
		},
		UnorderedCombo: AxisResult{
			Ranked:        agg.UnorderedComboRanked(),
			Total:         agg.UnorderedComboTotal(),
			Concentration: aggregate.Concentration(agg.UnorderedComboRanked(), agg.UnorderedComboTotal(), params.PHead),
		},
		GraphReport: graphReport,
		Index: IndexSummary{
			N:               idx.N(),
			D:               idx.Dim(),
			MaxLayer:        idx.MaxLayer(),
			EntryPoint:      idx.EntryPoint(),
			LayerCounts:     idx.LayerCounts(),
			MeanDegree:      graphReport.MeanDegreeAll,
			DegreeHistogram: graphReport.DegreeHistogram,
		},
		SkippedQueries: skipped,
	}

	return bundle, nil
}
