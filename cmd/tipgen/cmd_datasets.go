package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvandessel/tipgen/internal/constants"
	"github.com/nvandessel/tipgen/internal/export"
	"github.com/nvandessel/tipgen/internal/store"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ds"},
		Short:   "Manage cataloged datasets",
		Long: `List, inspect, export and delete datasets recorded by 'tipgen generate'
and the MCP server. The catalog lives in <data_dir>/tipgen.db.

Examples:
  tipgen datasets list
  tipgen datasets show ds-1712345678901234567
  tipgen datasets export ds-1712345678901234567 -o orders.parquet
  tipgen datasets delete ds-1712345678901234567
  tipgen datasets prune --keep 10 --max-age 30d`,
	}

	cmd.AddCommand(
		newDatasetsListCmd(),
		newDatasetsShowCmd(),
		newDatasetsExportCmd(),
		newDatasetsDeleteCmd(),
		newDatasetsPruneCmd(),
	)
	return cmd
}

// withCatalog loads configuration, opens the catalog and runs fn.
func withCatalog(cmd *cobra.Command, fn func(a *app, catalog store.Catalog) error) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	catalog, err := a.openCatalog()
	if err != nil {
		return err
	}
	defer catalog.Close()
	return fn(a, catalog)
}

func newDatasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cataloged datasets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, catalog store.Catalog) error {
				metas, err := catalog.ListDatasets(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOutput(cmd) {
					if metas == nil {
						metas = []store.DatasetMeta{}
					}
					return writeJSON(cmd, map[string]any{"datasets": metas, "count": len(metas)})
				}

				out := cmd.OutOrStdout()
				if len(metas) == 0 {
					fmt.Fprintln(out, "No datasets. Run 'tipgen generate' to create one.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tROWS\tSEED\tCREATED")
				for _, m := range metas {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
						m.ID, valueOrDefault(m.Name, "-"), m.Source, m.Rows,
						seedLabel(m.Seed), m.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
}

func newDatasetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a dataset's metadata and generation parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, catalog store.Catalog) error {
				meta, err := catalog.GetDataset(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if jsonOutput(cmd) {
					return writeJSON(cmd, meta)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:           %s\n", meta.ID)
				fmt.Fprintf(out, "Name:         %s\n", valueOrDefault(meta.Name, "(none)"))
				fmt.Fprintf(out, "Source:       %s\n", meta.Source)
				fmt.Fprintf(out, "Rows:         %d\n", meta.Rows)
				fmt.Fprintf(out, "Seed:         %s\n", seedLabel(meta.Seed))
				fmt.Fprintf(out, "Content hash: %s\n", meta.ContentHash)
				fmt.Fprintf(out, "Created:      %s\n", meta.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Generator:")
				printGenerator(out, meta.Config)
				return nil
			})
		},
	}
}

func newDatasetsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a cataloged dataset to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			formatFlag, _ := cmd.Flags().GetString("format")

			return withCatalog(cmd, func(a *app, catalog store.Catalog) error {
				t, err := catalog.LoadTable(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				format, output := resolveOutput(constants.Format(formatFlag), output, a.cfg.Output.Format)
				if format == constants.FormatSnapshot {
					err = export.WriteSnapshot(output, t, map[string]string{"dataset_id": args[0]})
				} else {
					err = export.WriteFile(output, format, t)
				}
				if err != nil {
					return fmt.Errorf("failed to export dataset: %w", err)
				}

				if jsonOutput(cmd) {
					return writeJSON(cmd, map[string]any{
						"dataset_id": args[0],
						"rows":       t.Len(),
						"output":     output,
						"format":     format,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows → %s (%s)\n", t.Len(), output, format)
				return nil
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default ./synthetic_delivery_data.<ext>)")
	cmd.Flags().String("format", "", "Output format: csv, parquet, arrow or snapshot (default: from extension, then config)")
	return cmd
}

func newDatasetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a dataset from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(a *app, catalog store.Catalog) error {
				err := catalog.DeleteDataset(cmd.Context(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no dataset %s; run 'tipgen datasets list'", args[0])
				}
				if err != nil {
					return err
				}
				a.logger.Debug("deleted dataset", "id", args[0])

				if jsonOutput(cmd) {
					return writeJSON(cmd, map[string]string{"status": "deleted", "dataset_id": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newDatasetsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old datasets from the catalog",
		Long: `Delete every dataset not kept by at least one retention rule.
Datasets are considered newest first.

Examples:
  tipgen datasets prune --keep 5              # keep the 5 newest
  tipgen datasets prune --max-age 2w          # keep the last two weeks
  tipgen datasets prune --max-rows 100000     # keep newest until 100k rows
  tipgen datasets prune --keep 3 --dry-run    # show what would be deleted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, _ := cmd.Flags().GetInt("keep")
			maxAge, _ := cmd.Flags().GetString("max-age")
			maxRows, _ := cmd.Flags().GetInt("max-rows")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			var policies []store.RetentionPolicy
			if cmd.Flags().Changed("keep") {
				if keep < 0 {
					return fmt.Errorf("--keep must be non-negative, got %d", keep)
				}
				policies = append(policies, &store.CountPolicy{MaxCount: keep})
			}
			if maxAge != "" {
				d, err := store.ParseDuration(maxAge)
				if err != nil {
					return fmt.Errorf("invalid --max-age: %w", err)
				}
				policies = append(policies, &store.AgePolicy{MaxAge: d})
			}
			if cmd.Flags().Changed("max-rows") {
				policies = append(policies, &store.RowsPolicy{MaxTotalRows: maxRows})
			}
			if len(policies) == 0 {
				return errors.New("specify at least one of --keep, --max-age or --max-rows")
			}

			return withCatalog(cmd, func(a *app, catalog store.Catalog) error {
				deleted, err := store.ApplyRetention(cmd.Context(), catalog, &store.CompositePolicy{Policies: policies}, dryRun)
				if err != nil {
					return err
				}
				a.logger.Debug("pruned catalog", "deleted", len(deleted), "dry_run", dryRun)

				if jsonOutput(cmd) {
					if deleted == nil {
						deleted = []string{}
					}
					return writeJSON(cmd, map[string]any{"deleted": deleted, "count": len(deleted), "dry_run": dryRun})
				}

				out := cmd.OutOrStdout()
				verb := "Deleted"
				if dryRun {
					verb = "Would delete"
				}
				fmt.Fprintf(out, "%s %d dataset(s)\n", verb, len(deleted))
				for _, id := range deleted {
					fmt.Fprintf(out, "  %s\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("keep", 0, "Keep the N newest datasets")
	cmd.Flags().String("max-age", "", "Keep datasets newer than this (e.g. 720h, 30d, 2w)")
	cmd.Flags().Int("max-rows", 0, "Keep the newest datasets up to this many total rows")
	cmd.Flags().Bool("dry-run", false, "List what would be deleted without deleting")
	return cmd
}

func seedLabel(seed *uint64) string {
	if seed == nil {
		return "(random)"
	}
	return fmt.Sprintf("%d", *seed)
}
