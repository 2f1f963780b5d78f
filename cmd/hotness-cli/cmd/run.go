package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wangsibothunder/retrieval-hotness/internal/embedding"
	"github.com/wangsibothunder/retrieval-hotness/internal/logging"
	"github.com/wangsibothunder/retrieval-hotness/internal/profiling"
	"github.com/wangsibothunder/retrieval-hotness/internal/runconfig"
	"github.com/wangsibothunder/retrieval-hotness/pkg/hotness"
)

func newRunCmd() *cobra.Command {
	var configPath string
	var cpuProfilePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one hotness analysis run from a YAML run config",
		Long: `Load a run config (corpus-id, model-id, query-set-id, k, and the
corpus/query text file paths), build or reuse the persisted embedding
store, build the HNSW index, drive the query workload, and print a terse
summary of the resulting bundle. The index is built afresh on every run;
it is not saved or reloaded.

Rendering the full ranked distributions to a report is outside this
command's scope; use the pkg/hotness facade directly to consume the
complete result bundle programmatically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), configPath, cpuProfilePath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to the run config YAML file")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&cpuProfilePath, "cpuprofile", "", "write a CPU profile to this path (HNSW build/search is the dominant cost)")

	return cmd
}

func runAnalysis(ctx context.Context, configPath, cpuProfilePath string) error {
	cfg, err := runconfig.Load(configPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig(cfg.OutputDirectory)
	if debug {
		logCfg = logging.DebugConfig(cfg.OutputDirectory)
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	if cpuProfilePath != "" {
		stopProfile, err := profiling.NewProfiler().StartCPU(cpuProfilePath)
		if err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer stopProfile()
	}

	corpus, err := readLines(cfg.CorpusPath)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	queries, err := readLines(cfg.QueryPath)
	if err != nil {
		return fmt.Errorf("read queries: %w", err)
	}

	embedder := embedding.NewStaticEmbedder(0)
	pipeline, err := hotness.NewPipeline(cfg.EmbeddingStoreDir, embedder, hotness.WithSeed(cfg.Seed))
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	if cfg.ModelID == "" {
		cfg.ModelID = embedder.ModelID()
	}

	bundle, err := pipeline.Run(ctx, corpus, queries, cfg.ToRunParams())
	if err != nil {
		return err
	}

	fmt.Printf("run %s: corpus=%s docs=%d queries=%d skipped=%d\n",
		bundle.RunID, cfg.CorpusID, bundle.Index.N, len(queries), bundle.SkippedQueries)
	fmt.Printf("doc-freq concentration @p=%.2f: %.4f\n", cfg.PHead, bundle.DocFreq.Concentration)
	fmt.Printf("graph correlation (ln rank vs ln freq): %.4f\n", bundle.GraphReport.RankFrequencyPearson)

	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
