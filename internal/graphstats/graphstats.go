// Package graphstats joins a finalized DocFreq ranked distribution with
// HNSW structure: it reports each document's layer and degree and
// correlates hotness with graph position (spec.md §4.5).
package graphstats

import (
	"math"

	"github.com/wangsibothunder/retrieval-hotness/internal/aggregate"
	"github.com/wangsibothunder/retrieval-hotness/internal/rerrors"
)

// GraphSource is the subset of hnsw.Index the inspector depends on.
type GraphSource interface {
	N() int
	Layer(id int) (int, error)
	Degree(id int) (int, error)
}

// Row is one document's position in both the frequency ranking and the
// graph: its rank, id, observed frequency, HNSW layer, and degree.
type Row struct {
	Rank      int
	DocID     int
	Frequency int64
	Layer     int
	Degree    int
}

// DegreeHistogramBucket counts nodes whose degree equals Degree.
type DegreeHistogramBucket struct {
	Degree int
	Count  int
}

// Report is GraphInspector's output for one DocFreq ranking against one
// index (spec.md §4.5, §4.6).
type Report struct {
	Head                  []Row
	HighLayerFractionHead float64
	MeanDegreeAll         float64
	MeanDegreeHead        float64
	HeadMeanGEGlobalMean  bool
	DegreeHistogram       []DegreeHistogramBucket
	RankFrequencyPearson  float64
}

// Inspect computes a Report for the top ⌈p·|ranked|⌉ documents of
// ranked against idx. ranked must already be sorted by descending
// frequency (aggregate.Aggregator's invariant).
func Inspect(ranked []aggregate.RankedEntry, idx GraphSource, p float64) (*Report, error) {
	headN := aggregate.HeadCount(ranked, p)

	head := make([]Row, 0, headN)
	for i := 0; i < headN; i++ {
		row, err := rowFor(ranked, i, idx)
		if err != nil {
			return nil, err
		}
		head = append(head, row)
	}

	var highLayerHead int
	var degreeSumHead int64
	for _, row := range head {
		if row.Layer > 0 {
			highLayerHead++
		}
		degreeSumHead += int64(row.Degree)
	}

	highLayerFraction := 0.0
	meanDegreeHead := 0.0
	if len(head) > 0 {
		highLayerFraction = float64(highLayerHead) / float64(len(head))
		meanDegreeHead = float64(degreeSumHead) / float64(len(head))
	}

	meanDegreeAll, histogram, err := globalDegreeStats(idx)
	if err != nil {
		return nil, err
	}

	return &Report{
		Head:                  head,
		HighLayerFractionHead: highLayerFraction,
		MeanDegreeAll:         meanDegreeAll,
		MeanDegreeHead:        meanDegreeHead,
		HeadMeanGEGlobalMean:  meanDegreeHead >= meanDegreeAll,
		DegreeHistogram:       histogram,
		RankFrequencyPearson:  rankFrequencyPearson(ranked),
	}, nil
}

func rowFor(ranked []aggregate.RankedEntry, i int, idx GraphSource) (Row, error) {
	entry := ranked[i]
	docID := entry.Key[0]

	layer, err := idx.Layer(docID)
	if err != nil {
		return Row{}, err
	}
	degree, err := idx.Degree(docID)
	if err != nil {
		return Row{}, err
	}

	return Row{
		Rank:      i + 1,
		DocID:     docID,
		Frequency: entry.Count,
		Layer:     layer,
		Degree:    degree,
	}, nil
}

func globalDegreeStats(idx GraphSource) (mean float64, histogram []DegreeHistogramBucket, err error) {
	n := idx.N()
	if n == 0 {
		return 0, nil, nil
	}

	counts := make(map[int]int)
	var sum int64
	for id := 0; id < n; id++ {
		degree, err := idx.Degree(id)
		if err != nil {
			return 0, nil, rerrors.Wrap(rerrors.KindOutOfRange, "degree lookup during global stats", err)
		}
		sum += int64(degree)
		counts[degree]++
	}

	buckets := make([]DegreeHistogramBucket, 0, len(counts))
	for degree, count := range counts {
		buckets = append(buckets, DegreeHistogramBucket{Degree: degree, Count: count})
	}
	sortBuckets(buckets)

	return float64(sum) / float64(n), buckets, nil
}

func sortBuckets(b []DegreeHistogramBucket) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && b[j-1].Degree > b[j].Degree; j-- {
			b[j-1], b[j] = b[j], b[j-1]
		}
	}
}

// rankFrequencyPearson computes the Pearson correlation of ln(rank)
// against ln(frequency) over the whole ranked list (spec.md §4.5).
// Values near -1 indicate a heavy-tailed, power-law-like distribution.
// Entries with zero frequency are skipped (ln is undefined); fewer than
// two usable points yields 0.
func rankFrequencyPearson(ranked []aggregate.RankedEntry) float64 {
	xs := make([]float64, 0, len(ranked))
	ys := make([]float64, 0, len(ranked))
	for i, entry := range ranked {
		if entry.Count <= 0 {
			continue
		}
		xs = append(xs, math.Log(float64(i+1)))
		ys = append(ys, math.Log(float64(entry.Count)))
	}
	if len(xs) < 2 {
		return 0
	}
	return pearson(xs, ys)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
		sumYY += ys[i] * ys[i]
	}
	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
