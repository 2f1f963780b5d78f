package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/wangsibothunder/retrieval-hotness/internal/vecmath"
)

// StaticEmbedder is a deterministic, dependency-free Embedder. It hashes
// tokens and character trigrams into a fixed-width vector, weighting each
// contribution, then L2-normalizes the result. It exists so the pipeline
// (and its tests) can run without a real model: exact semantic quality is
// irrelevant to the core, which treats the embedder as opaque (spec.md §1).
type StaticEmbedder struct {
	dim int
}

const (
	tokenWeight = float32(0.7)
	ngramWeight = float32(0.3)
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// NewStaticEmbedder creates a StaticEmbedder producing vectors of width
// dim. A non-positive dim selects the default width of 256.
func NewStaticEmbedder(dim int) *StaticEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &StaticEmbedder{dim: dim}
}

func (e *StaticEmbedder) Dimensions() int { return e.dim }

func (e *StaticEmbedder) ModelID() string { return "static-hash-v1" }

// Embed implements Embedder. It never returns an error — the static
// embedder has no external failure mode — but satisfies the interface so
// it can stand in for a real collaborator in tests and examples.
func (e *StaticEmbedder) Embed(_ context.Context, batch []string) ([][]float32, error) {
	out := make([][]float32, len(batch))
	for i, text := range batch {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *StaticEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		vec[0] = 1
		return vec
	}

	for _, tok := range tokenize(trimmed) {
		vec[hashToIndex(tok, e.dim)] += tokenWeight
	}
	for _, gram := range trigrams(strings.ToLower(trimmed)) {
		vec[hashToIndex(gram, e.dim)] += ngramWeight
	}

	vecmath.NormalizeInPlace(vec)
	if vecmath.Norm(vec) == 0 {
		vec[0] = 1
	}
	return vec
}

func tokenize(text string) []string {
	words := tokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		tokens = append(tokens, strings.ToLower(w))
	}
	return tokens
}

func trigrams(s string) []string {
	if len(s) < ngramSize {
		return []string{s}
	}
	grams := make([]string, 0, len(s)-ngramSize+1)
	for i := 0; i+ngramSize <= len(s); i++ {
		grams = append(grams, s[i:i+ngramSize])
	}
	return grams
}

func hashToIndex(s string, dim int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32()) % dim
}
