package hnsw

import "container/heap"

// candidate pairs a node id with its distance to the active query vector.
type candidate struct {
	id   int
	dist float32
}

// minDistHeap pops the closest candidate first; used as the beam
// search's exploration frontier.
type minDistHeap []candidate

func (h minDistHeap) Len() int            { return len(h) }
func (h minDistHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minDistHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *minDistHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// maxDistHeap pops the farthest candidate first; used to keep the
// current best-ef result set with O(log ef) eviction of the worst entry.
type maxDistHeap []candidate

func (h maxDistHeap) Len() int            { return len(h) }
func (h maxDistHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxDistHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxDistHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *maxDistHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

var _ = heap.Interface(&minDistHeap{})
var _ = heap.Interface(&maxDistHeap{})
