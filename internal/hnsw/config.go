// Package hnsw implements the hierarchical navigable small world graph
// index at the center of the pipeline: build over an embedding matrix,
// batched k-NN query, and the structural inspection surface
// (layer/neighbor/degree) the graph inspector reads (spec.md §4.2).
//
// The algorithm itself follows the shape common across the pack's HNSW
// implementations (insert via greedy descent + layered beam search,
// closest-first neighbor pruning, bidirectional links with reverse-link
// pruning); the persisted wire format is a flat per-layer CSR so the
// graph can be memory-mapped read-only after build (spec.md §6, §9).
package hnsw

import "math"

// Config holds the HNSW build/query parameters named in spec.md §4.2.
type Config struct {
	// M is the target number of neighbors per node at non-bottom layers.
	M int

	// EfConstruction is the candidate-list width used while inserting.
	EfConstruction int

	// EfSearch is the default candidate-list width at query time, used
	// when a caller does not override it.
	EfSearch int
}

// DefaultM is the default target neighbor count (spec.md §4.2).
const DefaultM = 32

// DefaultEfConstruction is the default construction beam width.
const DefaultEfConstruction = 64

// DefaultEfSearch is the default query beam width.
const DefaultEfSearch = 64

// DefaultConfig returns the spec's defaults: M=32, efConstruction>=M,
// efSearch a sensible multiple of k for typical small-k workloads.
func DefaultConfig() Config {
	return Config{
		M:              DefaultM,
		EfConstruction: DefaultEfConstruction,
		EfSearch:       DefaultEfSearch,
	}
}

func (c Config) withDefaults() Config {
	if c.M <= 0 {
		c.M = DefaultM
	}
	if c.EfConstruction < c.M {
		c.EfConstruction = c.M
	}
	if c.EfSearch <= 0 {
		c.EfSearch = DefaultEfSearch
	}
	return c
}

// maxConns returns M_ℓ: the maximum neighbor count at the given layer.
// Layer 0 gets 2M; every other layer gets M (spec.md §3, §4.2).
func (c Config) maxConns(layer int) int {
	if layer == 0 {
		return 2 * c.M
	}
	return c.M
}

// levelMul is mL = 1/ln(M), the level-assignment parameter (spec.md §4.2).
func (c Config) levelMul() float64 {
	return 1.0 / math.Log(float64(c.M))
}
