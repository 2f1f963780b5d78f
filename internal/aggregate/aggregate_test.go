package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAggregator_FourDocCorpusScenario replays the scenario from spec.md
// §8: a 4-doc corpus, k=2, three queries producing sequences
// [(0,1),(0,2),(1,0)].
func TestAggregator_FourDocCorpusScenario(t *testing.T) {
	a := New([]int{2, 3, 4})
	a.Consume([]int{0, 1})
	a.Consume([]int{0, 2})
	a.Consume([]int{1, 0})

	docFreq := a.DocFreqRanked()
	require.Len(t, docFreq, 3)
	assert.Equal(t, []int{0}, docFreq[0].Key)
	assert.EqualValues(t, 3, docFreq[0].Count)
	assert.Equal(t, []int{1}, docFreq[1].Key)
	assert.EqualValues(t, 2, docFreq[1].Count)
	assert.Equal(t, []int{2}, docFreq[2].Key)
	assert.EqualValues(t, 1, docFreq[2].Count)
	assert.EqualValues(t, 6, a.DocFreqTotal())

	ngram2 := a.NgramRanked(2)
	require.Len(t, ngram2, 3)
	for _, e := range ngram2 {
		assert.EqualValues(t, 1, e.Count)
	}
	assert.EqualValues(t, 3, a.NgramTotal(2))

	assert.Empty(t, a.NgramRanked(3))
	assert.Zero(t, a.NgramTotal(3))
	assert.Empty(t, a.NgramRanked(4))

	orderedCombo := a.OrderedComboRanked()
	require.Len(t, orderedCombo, 3)
	assert.EqualValues(t, 3, a.OrderedComboTotal())

	unorderedCombo := a.UnorderedComboRanked()
	require.Len(t, unorderedCombo, 2)
	assert.Equal(t, []int{0, 1}, unorderedCombo[0].Key)
	assert.EqualValues(t, 2, unorderedCombo[0].Count)
	assert.Equal(t, []int{0, 2}, unorderedCombo[1].Key)
	assert.EqualValues(t, 1, unorderedCombo[1].Count)
	assert.EqualValues(t, 3, a.UnorderedComboTotal())

	concentration := Concentration(docFreq, a.DocFreqTotal(), 0.33)
	assert.InDelta(t, 0.5, concentration, 1e-9)
}

func TestConcentration_EmptyAxisIsZero(t *testing.T) {
	assert.Zero(t, Concentration(nil, 0, 0.1))
}

func TestConcentration_AtPOneIsOne(t *testing.T) {
	a := New([]int{2})
	a.Consume([]int{0, 1})
	a.Consume([]int{2, 3})
	a.Consume([]int{0, 2})

	ranked := a.DocFreqRanked()
	assert.InDelta(t, 1.0, Concentration(ranked, a.DocFreqTotal(), 1.0), 1e-9)
}

func TestAggregator_EmptySequenceContributesNothing(t *testing.T) {
	a := New([]int{2, 3, 4})
	a.Consume(nil)
	a.Consume([]int{})

	assert.Empty(t, a.DocFreqRanked())
	assert.Zero(t, a.DocFreqTotal())
	assert.Zero(t, a.OrderedComboTotal())
	assert.Zero(t, a.UnorderedComboTotal())
}

func TestAggregator_SingleDocumentCorpus(t *testing.T) {
	a := New([]int{2})
	for i := 0; i < 5; i++ {
		a.Consume([]int{0, 0})
	}

	ranked := a.DocFreqRanked()
	require.Len(t, ranked, 1)
	assert.EqualValues(t, 10, ranked[0].Count)
	assert.InDelta(t, 1.0, Concentration(ranked, a.DocFreqTotal(), 0.1), 1e-9)
}

func TestRankedDistribution_MonotonicNonIncreasing(t *testing.T) {
	a := New([]int{2})
	a.Consume([]int{0, 1})
	a.Consume([]int{1, 2})
	a.Consume([]int{1, 3})
	a.Consume([]int{3, 1})

	ranked := a.DocFreqRanked()
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i].Count, ranked[i-1].Count)
	}
}
