// Package hotness is the public facade over the retrieval-hotness
// analytics pipeline: given a corpus, a query workload, and a k, it
// reports how retrieval traffic concentrates on a subset of documents
// and how that concentration relates to each document's position in
// the HNSW graph (spec.md §1).
package hotness

import (
	"context"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
	"github.com/wangsibothunder/retrieval-hotness/internal/hnsw"
	"github.com/wangsibothunder/retrieval-hotness/internal/orchestrate"
)

// Embedder maps a batch of strings to L2-normalized vectors. It is the
// only collaborator callers must supply; see internal/embedding for the
// interface contract and a deterministic reference implementation,
// embedding.NewStaticEmbedder.
type Embedder = embedding.Embedder

// RunParams parameterizes a single run (spec.md §6 command surface).
type RunParams = orchestrate.RunParams

// ResultBundle is a run's complete output.
type ResultBundle = orchestrate.ResultBundle

// HNSWConfig exposes the HNSW build parameters (spec.md §4.2) to
// callers who want to override the default M / efConstruction /
// efSearch.
type HNSWConfig = hnsw.Config

// DefaultHNSWConfig returns the spec's default HNSW build parameters.
func DefaultHNSWConfig() HNSWConfig { return hnsw.DefaultConfig() }

// Option configures a Pipeline.
type Option func(*orchestrate.Orchestrator)

// WithHNSWConfig overrides the default HNSW build parameters.
func WithHNSWConfig(cfg HNSWConfig) Option {
	return func(o *orchestrate.Orchestrator) { orchestrate.WithHNSWConfig(cfg)(o) }
}

// WithSeed overrides the default HNSW level-assignment seed.
func WithSeed(seed int64) Option {
	return func(o *orchestrate.Orchestrator) { orchestrate.WithSeed(seed)(o) }
}

// Pipeline is the entry point a caller embeds: it owns an embedding
// store and an embedder, and runs one or more (corpus, query-set, k)
// analyses over them.
type Pipeline struct {
	orchestrator *orchestrate.Orchestrator
}

// NewPipeline creates a Pipeline persisting embeddings under storeDir
// and embedding text via embedder.
func NewPipeline(storeDir string, embedder Embedder, opts ...Option) (*Pipeline, error) {
	store, err := embedding.NewStore(storeDir)
	if err != nil {
		return nil, err
	}

	o := orchestrate.New(store, embedder)
	for _, opt := range opts {
		opt(o)
	}

	return &Pipeline{orchestrator: o}, nil
}

// Run executes one analysis over corpusTexts (doc-id i == corpusTexts[i])
// and queryTexts (query-id i == queryTexts[i]), returning the full
// result bundle (spec.md §4.6).
func (p *Pipeline) Run(ctx context.Context, corpusTexts, queryTexts []string, params RunParams) (*ResultBundle, error) {
	return p.orchestrator.Run(ctx, corpusTexts, queryTexts, params)
}
