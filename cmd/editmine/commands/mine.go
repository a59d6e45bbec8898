package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editmine/pkg/config"
	"github.com/Sumatoshi-tech/editmine/pkg/miner"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
)

// ErrIndexRequired is returned when mine is called without the corpus index.
var ErrIndexRequired = errors.New("corpus index CSV path is required")

// mineOptions holds the flags of the mine command that override config.
type mineOptions struct {
	language     string
	revisionDirs []string
	outDir       string
	prefix       string
	batchSize    int
	compress     bool
	classify     bool
	abstract     bool
	mode         string
	workers      int
	maxTokens    int
	summaryJSON  bool
}

func newMineCommand(opts *globalOptions) *cobra.Command {
	mo := &mineOptions{}

	cmd := &cobra.Command{
		Use:   "mine <index.csv>",
		Short: "Mine a review corpus into batched change-set records",
		Long: `Read a review corpus index (CSV with ch_id, ch_change_id, ch_author_account_id,
rev_change_id, f_file_name and rev_id_y columns), load each file's revision
document from the first revision directory that holds it, and write one
record per modified hunk to numbered JSON batches.

Examples:
  editmine mine corpus.csv --revision-dir /data/rev0 --revision-dir /data/rev1
  editmine mine corpus.csv --classify --abstract --compress -o out`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Usage()

				return ErrIndexRequired
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			err = mo.apply(cmd, cfg)
			if err != nil {
				return err
			}

			return runMine(cmd, opts, mo, cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&mo.language, "language", "l", "", "language of the mined files")
	cmd.Flags().StringSliceVarP(&mo.revisionDirs, "revision-dir", "r", nil, "revision document directory, probed in order (repeatable)")
	cmd.Flags().StringVarP(&mo.outDir, "output", "o", "", "output directory")
	cmd.Flags().StringVar(&mo.prefix, "prefix", "", "output file prefix")
	cmd.Flags().IntVar(&mo.batchSize, "batch-size", 0, "records per output file")
	cmd.Flags().BoolVar(&mo.compress, "compress", false, "write lz4-compressed batches")
	cmd.Flags().BoolVar(&mo.classify, "classify", false, "attach comparison flags to every record")
	cmd.Flags().BoolVar(&mo.abstract, "abstract", false, "attach the edit template to every record")
	cmd.Flags().StringVar(&mo.mode, "mode", "", "diff set behind the flags: lcs, multiset or levenshtein")
	cmd.Flags().IntVarP(&mo.workers, "workers", "w", 0, "concurrent comparisons (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&mo.maxTokens, "max-tokens", 0, "per-side token limit")
	cmd.Flags().BoolVar(&mo.summaryJSON, "json", false, "print the run summary as JSON")

	return cmd
}

// apply copies the flags that were set onto cfg and revalidates it.
func (mo *mineOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("language") {
		cfg.Language = mo.language
	}

	if flags.Changed("revision-dir") {
		cfg.RevisionDirs = mo.revisionDirs
	}

	if flags.Changed("output") {
		cfg.Output.Dir = mo.outDir
	}

	if flags.Changed("prefix") {
		cfg.Output.Prefix = mo.prefix
	}

	if flags.Changed("batch-size") {
		cfg.Output.BatchSize = mo.batchSize
	}

	if flags.Changed("compress") {
		cfg.Output.Compress = mo.compress
	}

	if flags.Changed("classify") {
		cfg.Mine.Classify = mo.classify
	}

	if flags.Changed("abstract") {
		cfg.Mine.Abstract = mo.abstract
	}

	if flags.Changed("mode") {
		cfg.Mine.Mode = mo.mode
	}

	if flags.Changed("workers") {
		cfg.Mine.Workers = mo.workers
	}

	if flags.Changed("max-tokens") {
		cfg.Limits.MaxTokens = mo.maxTokens
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func runMine(cmd *cobra.Command, opts *globalOptions, mo *mineOptions, cfg *config.Config, index string) error {
	oc, err := telemetryConfig(cfg, opts, observability.ModeCLI)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	providers, err := observability.Init(ctx, oc)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(ctx))
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	mm, err := observability.NewMiningMetrics(providers.Meter)
	if err != nil {
		return err
	}

	m, err := miner.New(cfg,
		miner.WithLogger(observability.Component(providers.Logger, "miner")),
		miner.WithTracer(providers.Tracer),
		miner.WithMetrics(red, mm),
	)
	if err != nil {
		return err
	}

	summary, err := m.Run(ctx, index)
	if err != nil {
		return err
	}

	if opts.quiet {
		return nil
	}

	if mo.summaryJSON {
		return writeJSON(cmd.OutOrStdout(), summary)
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.String())

	return nil
}
