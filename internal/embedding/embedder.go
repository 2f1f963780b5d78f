// Package embedding implements the core's two embedding-facing pieces:
// the Embedder collaborator interface (spec.md §6 — an opaque
// text→vector function the core only calls) and the EmbeddingStore that
// caches its output per (corpus-id, model-id).
package embedding

import "context"

// Embedder maps a batch of strings to L2-normalized float32 vectors of
// a fixed dimension. It is the only collaborator the core depends on for
// turning text into vectors; the model and its weights are the
// implementation's concern, not the core's (spec.md §1, §9).
//
// Embed must be deterministic for a fixed model id, return one row per
// input string in input order, and return finite, unit-norm rows. A
// failure must fail the whole batch — spec.md §6 treats per-batch
// failure as a single error, not partial results.
type Embedder interface {
	// Embed returns a (len(batch), Dimensions()) matrix, row i
	// corresponding to batch[i].
	Embed(ctx context.Context, batch []string) ([][]float32, error)

	// Dimensions returns the fixed output width D.
	Dimensions() int

	// ModelID identifies the model for EmbeddingStore's cache key. Two
	// embedders that could produce different vectors for the same text
	// must report different ModelIDs.
	ModelID() string
}
