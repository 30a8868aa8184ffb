package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/dataset"
	"github.com/nvandessel/tipgen/internal/export"
)

// addTableFlags adds the flags that select an input table for commands that
// take an optional [file] argument.
func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().String("dataset", "", "Catalog dataset ID to read instead of a file")
	cmd.Flags().String("format", "", "Input file format: csv, parquet, arrow or snapshot (default: from extension)")
}

// loadTable reads the table named by a file argument or --dataset.
// It returns the table and a label describing where it came from.
func loadTable(cmd *cobra.Command, a *app, args []string) (*dataset.Table, string, error) {
	id, _ := cmd.Flags().GetString("dataset")
	format, _ := cmd.Flags().GetString("format")

	switch {
	case id != "" && len(args) > 0:
		return nil, "", errors.New("specify either a file or --dataset, not both")

	case id != "":
		catalog, err := a.openCatalog()
		if err != nil {
			return nil, "", err
		}
		defer catalog.Close()

		t, err := catalog.LoadTable(cmd.Context(), id)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load dataset: %w", err)
		}
		return t, id, nil

	case len(args) == 1:
		f := constants.Format(format)
		if f != "" && !f.Valid() {
			return nil, "", fmt.Errorf("unsupported format %q", format)
		}
		t, err := export.ReadFile(cmd.Context(), args[0], f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return t, args[0], nil

	default:
		return nil, "", errors.New("specify a data file or --dataset <id>")
	}
}
