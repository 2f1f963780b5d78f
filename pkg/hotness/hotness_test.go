package hotness

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
)

func TestPipeline_Run(t *testing.T) {
	embedder := embedding.NewStaticEmbedder(16)
	p, err := NewPipeline(t.TempDir(), embedder, WithSeed(3))
	require.NoError(t, err)

	corpus := make([]string, 25)
	for i := range corpus {
		corpus[i] = fmt.Sprintf("text about subject %d", i%6)
	}

	bundle, err := p.Run(context.Background(), corpus, corpus[:8], RunParams{
		CorpusID: "c1",
		ModelID:  embedder.ModelID(),
		K:        2,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, bundle.RunID)
	assert.Equal(t, len(corpus), bundle.Index.N)
	assert.NotEmpty(t, bundle.DocFreq.Ranked)
}
