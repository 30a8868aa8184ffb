package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/regression"
)

func newTrainCmd() *cobra.Command {
	defaults := regression.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "train [file]",
		Short: "Fit regression models that predict tip_percent",
		Long: `Split a dataset into training and test rows, standardize the predictors,
and fit linear, ridge and lasso regressions. Models are compared by mean
absolute error on the held-out rows.

Examples:
  tipgen train synthetic_delivery_data.csv
  tipgen train --dataset ds-1712345678901234567 --degree 2
  tipgen train orders.parquet --sweep 0.01,0.1,1,10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			t, source, err := loadTable(cmd, a, args)
			if err != nil {
				return err
			}

			opts := regression.DefaultOptions()
			opts.TestRatio, _ = cmd.Flags().GetFloat64("test-ratio")
			opts.Seed, _ = cmd.Flags().GetUint64("split-seed")
			opts.Degree, _ = cmd.Flags().GetInt("degree")
			opts.RidgeAlpha, _ = cmd.Flags().GetFloat64("ridge-alpha")
			opts.LassoAlpha, _ = cmd.Flags().GetFloat64("lasso-alpha")
			opts.Sweep, _ = cmd.Flags().GetFloat64Slice("sweep")

			a.logger.Debug("training", "source", source, "rows", t.Len(), "degree", opts.Degree)
			report, err := regression.Evaluate(t, opts)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, report)
			}
			printReport(cmd.OutOrStdout(), source, report)
			return nil
		},
	}

	addTableFlags(cmd)
	cmd.Flags().Float64("test-ratio", defaults.TestRatio, "Fraction of rows held out for testing")
	cmd.Flags().Uint64("split-seed", defaults.Seed, "Seed for the train/test shuffle")
	cmd.Flags().Int("degree", defaults.Degree, "Polynomial degree of the features: 1 or 2")
	cmd.Flags().Float64("ridge-alpha", defaults.RidgeAlpha, "Ridge regularization strength")
	cmd.Flags().Float64("lasso-alpha", defaults.LassoAlpha, "Lasso regularization strength")
	cmd.Flags().Float64Slice("sweep", nil, "Alphas to additionally try for ridge and lasso")
	return cmd
}

func printReport(w io.Writer, source string, r *regression.Report) {
	fmt.Fprintf(w, "%s: %d training rows, %d test rows, %d features\n\n", source, r.TrainRows, r.TestRows, len(r.Features))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "model\talpha\tMAE\tRMSE\tR²")
	for _, res := range r.Results {
		alpha := "-"
		if res.Model != "linear" {
			alpha = fmt.Sprintf("%g", res.Alpha)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.Model, alpha, num(res.MAE), num(res.RMSE), num(res.R2))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nBest model: %s (MAE %s)\n", r.Best, num(r.BestMAE))

	for _, res := range r.Results {
		if res.Model != r.Best {
			continue
		}
		fmt.Fprintln(w, "\nCoefficients (standardized):")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  intercept\t%s\n", num(res.Intercept))
		for _, f := range r.Features {
			fmt.Fprintf(tw, "  %s\t%s\n", f, num(res.Coefficients[f]))
		}
		tw.Flush()
	}

	if len(r.Sweep) > 0 {
		fmt.Fprintln(w, "\nAlpha sweep:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  model\talpha\tMAE")
		sweep := slices.Clone(r.Sweep)
		slices.SortStableFunc(sweep, func(x, y regression.SweepResult) int {
			return cmp.Compare(x.Model, y.Model)
		})
		for _, s := range sweep {
			fmt.Fprintf(tw, "  %s\t%g\t%s\n", s.Model, s.Alpha, num(s.MAE))
		}
		tw.Flush()
	}
}
