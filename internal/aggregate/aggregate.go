// Package aggregate maintains the five frequency axes over a workload's
// result sequences: per-document frequency, ordered n-grams, the full
// ordered combination, and the full unordered combination (spec.md
// §4.4). Counters are updated one sequence at a time so a caller never
// has to hold every sequence in memory at once.
package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// RankedEntry is one row of a ranked distribution: a key (a document id
// for DocFreq, or a tuple for the other axes) and its observation count.
type RankedEntry struct {
	Key   []int
	Count int64
}

// tupleCounter counts observations keyed by an ordered tuple of ints.
// Tuples are encoded to a string for map lookup; the canonical []int is
// kept alongside so callers never need to decode it.
type tupleCounter struct {
	counts map[string]int64
	tuples map[string][]int
	total  int64
}

func newTupleCounter() *tupleCounter {
	return &tupleCounter{counts: make(map[string]int64), tuples: make(map[string][]int)}
}

func encodeKey(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

func (c *tupleCounter) add(ids []int) {
	key := encodeKey(ids)
	if _, ok := c.tuples[key]; !ok {
		tuple := make([]int, len(ids))
		copy(tuple, ids)
		c.tuples[key] = tuple
	}
	c.counts[key]++
	c.total++
}

func compareTuples(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// ranked returns this counter's ranked distribution: count descending,
// ties broken by ascending key (spec.md §3 "Ranked distribution").
func (c *tupleCounter) ranked() []RankedEntry {
	entries := make([]RankedEntry, 0, len(c.counts))
	for key, count := range c.counts {
		entries = append(entries, RankedEntry{Key: c.tuples[key], Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return compareTuples(entries[i].Key, entries[j].Key) < 0
	})
	return entries
}

// Aggregator maintains DocFreq, ordered n-gram, ordered-combo, and
// unordered-combo counters over a stream of result sequences (spec.md
// §4.4).
type Aggregator struct {
	ngramSizes []int

	docFreq        *tupleCounter
	ngram          map[int]*tupleCounter
	orderedCombo   *tupleCounter
	unorderedCombo *tupleCounter
}

// New creates an Aggregator tracking ordered n-grams for each size in
// ngramSizes (spec.md default {2,3,4}).
func New(ngramSizes []int) *Aggregator {
	ngram := make(map[int]*tupleCounter, len(ngramSizes))
	for _, n := range ngramSizes {
		ngram[n] = newTupleCounter()
	}
	return &Aggregator{
		ngramSizes:     ngramSizes,
		docFreq:        newTupleCounter(),
		ngram:          ngram,
		orderedCombo:   newTupleCounter(),
		unorderedCombo: newTupleCounter(),
	}
}

// Consume folds one result sequence into every axis. An empty sequence
// (a failed query) contributes nothing (spec.md §4.3, §8).
func (a *Aggregator) Consume(seq []int) {
	if len(seq) == 0 {
		return
	}

	for _, id := range seq {
		a.docFreq.add([]int{id})
	}

	for _, n := range a.ngramSizes {
		if len(seq) < n {
			continue
		}
		counter := a.ngram[n]
		for i := 0; i+n <= len(seq); i++ {
			counter.add(seq[i : i+n])
		}
	}

	a.orderedCombo.add(seq)

	sorted := make([]int, len(seq))
	copy(sorted, seq)
	sort.Ints(sorted)
	a.unorderedCombo.add(sorted)
}

// DocFreqRanked returns the DocFreq ranked distribution.
func (a *Aggregator) DocFreqRanked() []RankedEntry { return a.docFreq.ranked() }

// DocFreqTotal returns the total number of DocFreq observations
// (Q·k for Q successful queries of length k; spec.md §8).
func (a *Aggregator) DocFreqTotal() int64 { return a.docFreq.total }

// NgramRanked returns the ranked distribution for ordered n-grams of
// size n, or nil if n was not configured.
func (a *Aggregator) NgramRanked(n int) []RankedEntry {
	c, ok := a.ngram[n]
	if !ok {
		return nil
	}
	return c.ranked()
}

// NgramTotal returns the total observation count for ordered n-grams of
// size n.
func (a *Aggregator) NgramTotal(n int) int64 {
	c, ok := a.ngram[n]
	if !ok {
		return 0
	}
	return c.total
}

// OrderedComboRanked returns the full-tuple ordered-combination ranked
// distribution.
func (a *Aggregator) OrderedComboRanked() []RankedEntry { return a.orderedCombo.ranked() }

// OrderedComboTotal returns the ordered-combo total (one per query).
func (a *Aggregator) OrderedComboTotal() int64 { return a.orderedCombo.total }

// UnorderedComboRanked returns the canonicalized-set unordered-
// combination ranked distribution.
func (a *Aggregator) UnorderedComboRanked() []RankedEntry { return a.unorderedCombo.ranked() }

// UnorderedComboTotal returns the unordered-combo total (one per query).
func (a *Aggregator) UnorderedComboTotal() int64 { return a.unorderedCombo.total }

// Concentration computes the cumulative mass captured by the top
// ⌈p·|entries|⌉ entries of a ranked distribution, divided by total
// (spec.md §4.4 "Numeric semantics"). An empty distribution has
// concentration 0 regardless of p.
func Concentration(entries []RankedEntry, total int64, p float64) float64 {
	if len(entries) == 0 || total == 0 {
		return 0
	}

	headN := int(math.Ceil(p * float64(len(entries))))
	if headN < 1 {
		headN = 1
	}
	if headN > len(entries) {
		headN = len(entries)
	}

	var cumulative int64
	for i := 0; i < headN; i++ {
		cumulative += entries[i].Count
	}
	return float64(cumulative) / float64(total)
}

// HeadCount returns ⌈p·|entries|⌉, the number of entries in the head
// set at fraction p — the same head size GraphInspector reads
// (spec.md §4.5).
func HeadCount(entries []RankedEntry, p float64) int {
	if len(entries) == 0 {
		return 0
	}
	n := int(math.Ceil(p * float64(len(entries))))
	if n < 1 {
		n = 1
	}
	if n > len(entries) {
		n = len(entries)
	}
	return n
}
