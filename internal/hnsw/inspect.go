package hnsw

import "github.com/wangsibothunder/retrieval-hotness/internal/rerrors"

// Layer returns the highest layer doc id participates in, or an
// OutOfRange error if id is not a valid doc id (spec.md §4.2 "Inspect").
func (ix *Index) Layer(id int) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if id < 0 || id >= len(ix.nodes) {
		return 0, rerrors.OutOfRange(id, len(ix.nodes))
	}
	return ix.nodes[id].layer, nil
}

// Neighbors returns doc id's neighbor ids across every layer it
// participates in, layer 0 first (spec.md §4.2 "Inspect": "a sequence of
// doc-ids across all layers"). Use NeighborsAtLayer for the per-layer
// view.
func (ix *Index) Neighbors(id int) ([]int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if id < 0 || id >= len(ix.nodes) {
		return nil, rerrors.OutOfRange(id, len(ix.nodes))
	}
	nd := ix.nodes[id]
	out := make([]int, 0, nd.layer+1)
	for l := 0; l <= nd.layer; l++ {
		out = append(out, nd.neighbors[l]...)
	}
	return out, nil
}

// NeighborsAtLayer returns doc id's neighbor ids at the given layer. It
// is an error if id is out of range; a valid id whose layer is below l
// simply has no neighbors there and returns an empty slice.
func (ix *Index) NeighborsAtLayer(id, l int) ([]int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if id < 0 || id >= len(ix.nodes) {
		return nil, rerrors.OutOfRange(id, len(ix.nodes))
	}
	nd := ix.nodes[id]
	if l < 0 || l > nd.layer {
		return []int{}, nil
	}
	out := make([]int, len(nd.neighbors[l]))
	copy(out, nd.neighbors[l])
	return out, nil
}

// LayerCounts returns, for every layer from 0 to MaxLayer inclusive, the
// number of nodes that participate in that layer (spec.md §4.2, §9).
func (ix *Index) LayerCounts() []int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.maxLayer < 0 {
		return []int{}
	}
	counts := make([]int, ix.maxLayer+1)
	for _, nd := range ix.nodes {
		for l := 0; l <= nd.layer; l++ {
			counts[l]++
		}
	}
	return counts
}

// Degree returns the total number of neighbor links of id, summed across
// every layer it participates in (spec.md §4.5, GLOSSARY "Degree").
func (ix *Index) Degree(id int) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if id < 0 || id >= len(ix.nodes) {
		return 0, rerrors.OutOfRange(id, len(ix.nodes))
	}
	nd := ix.nodes[id]
	degree := 0
	for l := 0; l <= nd.layer; l++ {
		degree += len(nd.neighbors[l])
	}
	return degree, nil
}
