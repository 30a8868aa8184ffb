package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/plot"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [file]",
		Short: "Render exploratory plots of a dataset as PNG files",
		Long: `Write a tip_percent histogram, a scatter plot of every numeric feature
against tip_percent, a tip_percent box plot for every categorical column,
and a correlation heatmap.

Examples:
  tipgen plot synthetic_delivery_data.csv --out plots/
  tipgen plot --dataset ds-1712345678901234567`,
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
			dir, _ := cmd.Flags().GetString("out")

			paths, err := plot.WriteAll(t, dir)
			if err != nil {
				return fmt.Errorf("plotting %s: %w", source, err)
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd, map[string]any{
					"source": source,
					"dir":    dir,
					"files":  paths,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d plots to %s\n", len(paths), dir)
			for _, p := range paths {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
			}
			return nil
		},
	}

	addTableFlags(cmd)
	cmd.Flags().String("out", "plots", "Directory to write PNG files to")
	return cmd
}
