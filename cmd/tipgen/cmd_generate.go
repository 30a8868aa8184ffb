package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/analysis"
	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/dataset"
	"github.com/nvandessel/tipgen/internal/export"
	"github.com/nvandessel/tipgen/internal/logging"
	"github.com/nvandessel/tipgen/internal/sanitize"
	"github.com/nvandessel/tipgen/internal/store"
)

// generateResult is the --json output of `tipgen generate`.
type generateResult struct {
	DatasetID string  `json:"dataset_id,omitempty"`
	Rows      int     `json:"rows"`
	Seed      *uint64 `json:"seed,omitempty"`
	Output    string  `json:"output"`
	Format    string  `json:"format"`
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic delivery-tipping dataset",
		Long: `Generate simulated orders and their tips, write them to a file, and
record the dataset in the local catalog.

Runs are not reproducible unless a seed is given with --seed, TIPGEN_SEED
or generator.seed in the config file.

Examples:
  tipgen generate                               # 2000 rows to ./synthetic_delivery_data.csv
  tipgen generate --rows 10000 --seed 42        # reproducible
  tipgen generate -o orders.parquet             # format from extension
  tipgen generate --format snapshot --no-save   # file only, no catalog entry`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			rows, _ := cmd.Flags().GetInt("rows")
			seed, _ := cmd.Flags().GetUint64("seed")
			formatFlag, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			name, _ := cmd.Flags().GetString("name")
			noSave, _ := cmd.Flags().GetBool("no-save")
			noNoise, _ := cmd.Flags().GetBool("no-noise")

			var opts []dataset.Option
			if cmd.Flags().Changed("rows") {
				opts = append(opts, dataset.WithRows(rows))
			}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, dataset.WithSeed(seed))
			}
			if noNoise {
				opts = append(opts, dataset.WithoutNoise())
			}

			format, output := resolveOutput(constants.Format(formatFlag), output, a.cfg.Output.Format)
			if !format.Valid() {
				return fmt.Errorf("unsupported format %q (valid: csv, parquet, arrow, snapshot)", format)
			}

			runLog := logging.NewRunLogger(a.dataDir, a.cfg.Logging.Level)
			defer runLog.Close()

			res, err := runGenerate(cmd.Context(), a, runLog, generateRequest{
				opts:   opts,
				format: format,
				output: output,
				name:   name,
				save:   !noSave,
			})
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d orders → %s (%s)\n", res.Rows, res.Output, res.Format)
			if res.Seed != nil {
				fmt.Fprintf(out, "  seed:    %d\n", *res.Seed)
			}
			if res.DatasetID != "" {
				fmt.Fprintf(out, "  dataset: %s\n", res.DatasetID)
			}
			return nil
		},
	}

	cmd.Flags().IntP("rows", "n", 0, "Number of orders to generate (default: generator.rows from config)")
	cmd.Flags().Uint64("seed", 0, "Seed for a reproducible dataset")
	cmd.Flags().String("format", "", "Output format: csv, parquet, arrow or snapshot (default: from extension, then config)")
	cmd.Flags().StringP("output", "o", "", "Output file (default ./synthetic_delivery_data.<ext>)")
	cmd.Flags().String("name", "", "Label stored with the catalog entry")
	cmd.Flags().Bool("no-save", false, "Do not record the dataset in the catalog")
	cmd.Flags().Bool("no-noise", false, "Disable the heuristic's Gaussian noise")

	return cmd
}

// resolveOutput picks the output format and path. An explicit format wins;
// otherwise the output extension decides, then the configured default.
// An empty output becomes the default file name for the chosen format.
func resolveOutput(format constants.Format, output string, fallback constants.Format) (constants.Format, string) {
	if format == "" {
		if f, ok := export.FormatFromPath(output); ok {
			format = f
		} else {
			format = fallback
		}
	}
	if output == "" {
		output = constants.DefaultOutputBase + format.Extension()
	}
	return format, output
}

type generateRequest struct {
	opts   []dataset.Option
	format constants.Format
	output string
	name   string
	save   bool
}

// runGenerate generates, writes and catalogs one dataset, recording the
// outcome in the run log.
func runGenerate(ctx context.Context, a *app, runLog *logging.RunLogger, req generateRequest) (_ *generateResult, retErr error) {
	start := time.Now()
	ev := logging.RunEvent{Source: store.SourceCLI, Format: req.format.String(), Output: req.output}
	defer func() {
		ev.ElapsedMS = time.Since(start).Milliseconds()
		if retErr != nil {
			ev.Error = retErr.Error()
		}
		runLog.Log(ev)
	}()

	res, err := dataset.Generate(a.cfg.Generator, req.opts...)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	ev.Rows = res.Table.Len()
	ev.Seed = res.Seed
	a.logger.Debug("generated table", "rows", ev.Rows, "elapsed", time.Since(start))
	traceSummaries(ctx, a, res.Table)

	// A catalog that cannot be opened must leave no output file behind.
	var catalog *store.SQLiteStore
	if req.save {
		catalog, err = a.openCatalog()
		if err != nil {
			return nil, err
		}
		defer catalog.Close()
	}

	if err := export.WriteFile(req.output, req.format, res.Table); err != nil {
		return nil, fmt.Errorf("failed to write dataset: %w", err)
	}

	out := &generateResult{
		Rows:   ev.Rows,
		Seed:   res.Seed,
		Output: req.output,
		Format: req.format.String(),
	}

	if catalog != nil {
		cfg := a.cfg.Generator.Clone()
		cfg.Rows = ev.Rows
		cfg.Seed = res.Seed
		meta, err := catalog.SaveDataset(ctx, store.DatasetMeta{
			Name:   sanitize.Label(req.name),
			Source: store.SourceCLI,
			Seed:   res.Seed,
			Config: cfg,
		}, res.Table)
		if err != nil {
			if rmErr := os.Remove(req.output); rmErr != nil {
				a.logger.Warn("failed to remove output after catalog error", "path", req.output, "error", rmErr)
			}
			return nil, fmt.Errorf("failed to record dataset: %w", err)
		}
		out.DatasetID = meta.ID
		ev.DatasetID = meta.ID
	}

	return out, nil
}

// traceSummaries logs the distribution of every numeric column at trace level.
func traceSummaries(ctx context.Context, a *app, t *dataset.Table) {
	if !a.logger.Enabled(ctx, logging.LevelTrace) {
		return
	}
	summaries, err := analysis.Describe(t)
	if err != nil {
		return
	}
	for _, s := range summaries {
		a.logger.Log(ctx, logging.LevelTrace, "column summary",
			"column", s.Column, "mean", s.Mean, "std", s.Std, "min", s.Min, "max", s.Max)
	}
}
