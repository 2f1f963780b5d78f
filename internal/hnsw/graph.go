package hnsw

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wangsibothunder/retrieval-hotness/internal/rerrors"
	"github.com/wangsibothunder/retrieval-hotness/internal/vecmath"
)

// node is one graph vertex. Its doc id is its slice index in Index.nodes.
type node struct {
	vector    []float32
	layer     int      // highest layer this node participates in
	neighbors [][]int  // neighbors[l] = neighbor doc ids at layer l, l in [0, layer]
}

// Index is a hierarchical navigable small world graph built over an
// embedding matrix. Build is single-writer; once built, concurrent
// searches are safe (spec.md §4.2, §5).
type Index struct {
	mu       sync.RWMutex
	cfg      Config
	dim      int
	rng      *rand.Rand
	nodes    []*node
	entry    int // doc id of the entry point; -1 if empty
	maxLayer int
}

// New creates an empty Index for vectors of the given dimension. seed
// makes level assignment reproducible — a build with the same seed over
// the same input produces the same graph (spec.md §5).
func New(dim int, cfg Config, seed int64) *Index {
	return &Index{
		cfg:      cfg.withDefaults(),
		dim:      dim,
		rng:      rand.New(rand.NewSource(seed)),
		entry:    -1,
		maxLayer: -1,
	}
}

// Dim returns the configured vector dimension.
func (ix *Index) Dim() int { return ix.dim }

// N returns the number of nodes in the index.
func (ix *Index) N() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.nodes)
}

// MaxLayer returns the highest occupied layer, or -1 if empty.
func (ix *Index) MaxLayer() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.maxLayer
}

// EntryPoint returns the doc id of the entry point (the node with the
// globally highest layer), or -1 if the index is empty (spec.md §4.2).
func (ix *Index) EntryPoint() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entry
}

// Build inserts every row of the matrix as doc id == row index, in
// order. Insertion is conceptually sequential (spec.md §5); this
// satisfies determinism given a fixed seed.
func (ix *Index) Build(ctx context.Context, rows [][]float32) error {
	for id, v := range rows {
		if len(v) != ix.dim {
			return rerrors.DimensionMismatch(ix.dim, len(v))
		}
		if err := ctx.Err(); err != nil {
			return rerrors.Cancelled()
		}
		ix.insert(id, v)
	}
	return nil
}

// randomLevel draws ⌊−ln(U)·mL⌋ for U uniform in (0,1] (spec.md §4.2).
func (ix *Index) randomLevel() int {
	u := ix.rng.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	level := int(math.Floor(-math.Log(u) * ix.cfg.levelMul()))
	if level > 31 {
		level = 31
	}
	return level
}

// insert adds doc id (must equal len(ix.nodes) when called in Build's
// row order) with vector v to the graph.
func (ix *Index) insert(id int, v []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	vec := make([]float32, len(v))
	copy(vec, v)

	level := ix.randomLevel()
	nd := &node{vector: vec, layer: level, neighbors: make([][]int, level+1)}
	for i := range nd.neighbors {
		nd.neighbors[i] = []int{}
	}
	ix.nodes = append(ix.nodes, nd)

	if ix.entry < 0 {
		ix.entry = id
		ix.maxLayer = level
		return
	}

	cur := ix.entry
	curDist := vecmath.CosineDistance(vec, ix.nodes[cur].vector)

	for l := ix.maxLayer; l > level; l-- {
		cur, curDist = ix.greedyDescend(vec, cur, curDist, l)
	}

	topInsert := level
	if topInsert > ix.maxLayer {
		topInsert = ix.maxLayer
	}

	ep := []int{cur}
	for l := topInsert; l >= 0; l-- {
		candidates := ix.searchLayer(vec, ep, ix.cfg.EfConstruction, l)
		maxC := ix.cfg.maxConns(l)
		neighbors := ix.selectClosest(vec, candidates, maxC)
		nd.neighbors[l] = neighbors

		for _, nID := range neighbors {
			other := ix.nodes[nID]
			if l > other.layer {
				continue
			}
			other.neighbors[l] = append(other.neighbors[l], id)
			if cap := ix.cfg.maxConns(l); len(other.neighbors[l]) > cap {
				other.neighbors[l] = ix.selectClosest(other.vector, other.neighbors[l], cap)
			}
		}

		ep = candidates
	}

	if level > ix.maxLayer {
		ix.entry = id
		ix.maxLayer = level
	}
}

// greedyDescend performs a width-1 greedy search for the closest node to
// v at layer l, starting from (cur, curDist).
func (ix *Index) greedyDescend(v []float32, cur int, curDist float32, l int) (int, float32) {
	changed := true
	for changed {
		changed = false
		curNode := ix.nodes[cur]
		if l > curNode.layer {
			break
		}
		for _, nID := range curNode.neighbors[l] {
			d := vecmath.CosineDistance(v, ix.nodes[nID].vector)
			if d < curDist {
				cur, curDist = nID, d
				changed = true
			}
		}
	}
	return cur, curDist
}

// searchLayer performs a beam search of width ef at layer l, starting
// from entryPoints, and returns up to ef doc ids ordered by ascending
// distance (closest first) — ties broken by smaller doc id (spec.md
// §4.2 "Query").
func (ix *Index) searchLayer(query []float32, entryPoints []int, ef int, l int) []int {
	visited := make(map[int]struct{}, ef*2)

	var candidates minDistHeap
	var results maxDistHeap

	for _, ep := range entryPoints {
		if _, ok := visited[ep]; ok {
			continue
		}
		visited[ep] = struct{}{}
		d := vecmath.CosineDistance(query, ix.nodes[ep].vector)
		heap.Push(&candidates, candidate{id: ep, dist: d})
		heap.Push(&results, candidate{id: ep, dist: d})
	}

	for candidates.Len() > 0 {
		closest := heap.Pop(&candidates).(candidate)

		if results.Len() >= ef && closest.dist > results[0].dist {
			break
		}

		nd := ix.nodes[closest.id]
		if l > nd.layer {
			continue
		}

		for _, nID := range nd.neighbors[l] {
			if _, seen := visited[nID]; seen {
				continue
			}
			visited[nID] = struct{}{}

			d := vecmath.CosineDistance(query, ix.nodes[nID].vector)
			if results.Len() < ef || d < results[0].dist {
				heap.Push(&candidates, candidate{id: nID, dist: d})
				heap.Push(&results, candidate{id: nID, dist: d})
				if results.Len() > ef {
					heap.Pop(&results)
				}
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].dist != results[j].dist {
			return results[i].dist < results[j].dist
		}
		return results[i].id < results[j].id
	})
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.id
	}
	return out
}

// selectClosest keeps up to maxN of candidates closest to query,
// breaking ties by smaller doc id (spec.md §4.2 pruning heuristic).
func (ix *Index) selectClosest(query []float32, candidates []int, maxN int) []int {
	if len(candidates) <= maxN {
		out := make([]int, len(candidates))
		copy(out, candidates)
		sort.Ints(out)
		return out
	}

	type scored struct {
		id   int
		dist float32
	}
	items := make([]scored, len(candidates))
	for i, id := range candidates {
		items[i] = scored{id: id, dist: vecmath.CosineDistance(query, ix.nodes[id].vector)}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		return items[i].id < items[j].id
	})
	items = items[:maxN]

	out := make([]int, maxN)
	for i, it := range items {
		out[i] = it.id
	}
	sort.Ints(out)
	return out
}

// Search returns the top-k doc ids and their inner-product scores for a
// single query vector, descending by score, ties broken by smaller doc
// id (spec.md §4.2 "Query").
func (ix *Index) Search(query []float32, k, ef int) ([]int, []float32, error) {
	if len(query) != ix.dim {
		return nil, nil, rerrors.DimensionMismatch(ix.dim, len(query))
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.nodes) == 0 {
		return []int{}, []float32{}, nil
	}
	if ef < k {
		ef = k
	}

	cur := ix.entry
	curDist := vecmath.CosineDistance(query, ix.nodes[cur].vector)
	for l := ix.maxLayer; l > 0; l-- {
		cur, curDist = ix.greedyDescend(query, cur, curDist, l)
	}

	candidateIDs := ix.searchLayer(query, []int{cur}, ef, 0)

	type scored struct {
		id    int
		score float32
	}
	scoredOut := make([]scored, len(candidateIDs))
	for i, id := range candidateIDs {
		scoredOut[i] = scored{id: id, score: vecmath.InnerProduct(query, ix.nodes[id].vector)}
	}
	sort.Slice(scoredOut, func(i, j int) bool {
		if scoredOut[i].score != scoredOut[j].score {
			return scoredOut[i].score > scoredOut[j].score
		}
		return scoredOut[i].id < scoredOut[j].id
	})
	if len(scoredOut) > k {
		scoredOut = scoredOut[:k]
	}

	ids := make([]int, len(scoredOut))
	scores := make([]float32, len(scoredOut))
	for i, s := range scoredOut {
		ids[i] = s.id
		scores[i] = s.score
	}
	return ids, scores, nil
}

// searchParallelism bounds concurrent per-query searches inside
// SearchBatch, mirroring the errgroup+semaphore shape the teacher uses
// for fan-out (internal/search/multi_query.go).
const searchParallelism = 16

// SearchBatch runs Search over every row of queries concurrently and
// returns (B,k) ids and scores in input order regardless of completion
// order (spec.md §4.2 "Batching").
func (ix *Index) SearchBatch(ctx context.Context, queries [][]float32, k, ef int) ([][]int, [][]float32, error) {
	b := len(queries)
	ids := make([][]int, b)
	scores := make([][]float32, b)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, searchParallelism)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}
			rowIDs, rowScores, err := ix.Search(q, k, ef)
			if err != nil {
				return err
			}
			ids[i] = rowIDs
			scores[i] = rowScores
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ids, scores, nil
}
