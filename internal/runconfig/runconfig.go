// Package runconfig loads the YAML configuration for a hotness run: the
// command surface named in spec.md §6, expressed as a file instead of
// flags since argument parsing itself is out of scope.
package runconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wangsibothunder/retrieval-hotness/internal/orchestrate"
)

// RunConfig mirrors the command surface named in spec.md §6:
// {corpus-id, model-id, query-set-id, k, ef_search?, p_head=0.10,
// ngram_sizes={2,3,4}, output-directory}.
type RunConfig struct {
	CorpusID        string  `yaml:"corpus_id" json:"corpus_id"`
	ModelID         string  `yaml:"model_id" json:"model_id"`
	QuerySetID      string  `yaml:"query_set_id" json:"query_set_id"`
	K               int     `yaml:"k" json:"k"`
	EfSearch        int     `yaml:"ef_search" json:"ef_search"`
	PHead           float64 `yaml:"p_head" json:"p_head"`
	NgramSizes      []int   `yaml:"ngram_sizes" json:"ngram_sizes"`
	OutputDirectory string  `yaml:"output_directory" json:"output_directory"`

	CorpusPath string `yaml:"corpus_path" json:"corpus_path"`
	QueryPath  string `yaml:"query_path" json:"query_path"`

	EmbeddingStoreDir   string `yaml:"embedding_store_dir" json:"embedding_store_dir"`
	IndexM              int    `yaml:"index_m" json:"index_m"`
	IndexEfConstruction int    `yaml:"index_ef_construction" json:"index_ef_construction"`
	Seed                int64  `yaml:"seed" json:"seed"`
}

// Default returns a RunConfig populated with spec.md's defaults for
// every optional field.
func Default() RunConfig {
	return RunConfig{
		PHead:               0.10,
		NgramSizes:          []int{2, 3, 4},
		OutputDirectory:     ".",
		EmbeddingStoreDir:   "embeddings",
		IndexM:              32,
		IndexEfConstruction: 64,
		Seed:                1,
	}
}

// Load reads and parses a RunConfig from a YAML file, filling in
// defaults for anything left unset.
func Load(path string) (RunConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("runconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, fmt.Errorf("runconfig: parse %s: %w", path, err)
	}

	if cfg.PHead <= 0 {
		cfg.PHead = 0.10
	}
	if len(cfg.NgramSizes) == 0 {
		cfg.NgramSizes = []int{2, 3, 4}
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = "."
	}

	return cfg, cfg.validate()
}

func (c RunConfig) validate() error {
	if c.CorpusID == "" {
		return fmt.Errorf("runconfig: corpus_id is required")
	}
	if c.K <= 0 {
		return fmt.Errorf("runconfig: k must be positive, got %d", c.K)
	}
	if c.CorpusPath == "" {
		return fmt.Errorf("runconfig: corpus_path is required")
	}
	if c.QueryPath == "" {
		return fmt.Errorf("runconfig: query_path is required")
	}
	return nil
}

// ToRunParams projects the fields orchestrate.Orchestrator.Run consumes
// out of the full command surface.
func (c RunConfig) ToRunParams() orchestrate.RunParams {
	return orchestrate.RunParams{
		CorpusID:   c.CorpusID,
		ModelID:    c.ModelID,
		QuerySetID: c.QuerySetID,
		K:          c.K,
		EfSearch:   c.EfSearch,
		PHead:      c.PHead,
		NgramSizes: c.NgramSizes,
	}
}
