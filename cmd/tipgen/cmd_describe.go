package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/analysis"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// describeResult is the --json output of `tipgen describe`.
type describeResult struct {
	Source      string                      `json:"source"`
	Rows        int                         `json:"rows"`
	Summary     []analysis.Summary          `json:"summary"`
	Correlation *analysis.CorrelationMatrix `json:"correlation,omitempty"`
	Groups      map[string][]analysis.Group `json:"groups,omitempty"`
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [file]",
		Short: "Summarize the columns of a dataset",
		Long: `Print count, mean, standard deviation, min, quartiles and max for every
numeric column of a dataset file or cataloged dataset.

Examples:
  tipgen describe synthetic_delivery_data.csv
  tipgen describe --dataset ds-1712345678901234567 --groups
  tipgen describe orders.parquet --correlation --json`,
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

			withCorr, _ := cmd.Flags().GetBool("correlation")
			withGroups, _ := cmd.Flags().GetBool("groups")

			res := describeResult{Source: source, Rows: t.Len()}
			if res.Summary, err = analysis.Describe(t); err != nil {
				return err
			}
			if withCorr {
				m, err := analysis.Correlation(t)
				if err != nil {
					return err
				}
				res.Correlation = &m
			}
			if withGroups {
				res.Groups = make(map[string][]analysis.Group)
				for _, col := range dataset.CategoricalColumns() {
					g, err := analysis.GroupMeans(t, col)
					if err != nil {
						return err
					}
					res.Groups[col] = g
				}
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, res)
			}
			printDescribe(cmd.OutOrStdout(), res)
			return nil
		},
	}

	addTableFlags(cmd)
	cmd.Flags().Bool("correlation", false, "Also print the Pearson correlation matrix")
	cmd.Flags().Bool("groups", false, "Also print tip_percent by each categorical column")
	return cmd
}

func printDescribe(w io.Writer, res describeResult) {
	fmt.Fprintf(w, "%s: %d rows\n\n", res.Source, res.Rows)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, s := range res.Summary {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min),
			num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
	}
	tw.Flush()

	if res.Correlation != nil {
		m := res.Correlation
		fmt.Fprintln(w, "\nCorrelation:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(tw, "\t")
		for i := range m.Columns {
			fmt.Fprintf(tw, "[%d]\t", i)
		}
		fmt.Fprintln(tw)
		for i, row := range m.Values {
			fmt.Fprintf(tw, "[%d] %s\t", i, m.Columns[i])
			for _, v := range row {
				fmt.Fprintf(tw, "%s\t", num(v))
			}
			fmt.Fprintln(tw)
		}
		tw.Flush()
	}

	for _, col := range dataset.CategoricalColumns() {
		groups, ok := res.Groups[col]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\ntip_percent by %s:\n", col)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "category\tcount\tmean\tstd\tmedian\t")
		for _, g := range groups {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n", g.Category, g.Count, num(g.Mean), num(g.Std), num(g.Median))
		}
		tw.Flush()
	}
}

// num formats a statistic to three decimals, or "-" when undefined.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
