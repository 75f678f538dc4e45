package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lakeload/internal/app"
	"lakeload/internal/domain"
)

func newTablesCmd(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect silver tables",
	}
	cmd.AddCommand(newTablesDescribeCmd(rt), newTablesSnapshotsCmd(rt))
	return cmd
}

func newTablesDescribeCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table-or-dataset>",
		Short: "Show the columns and row count of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, ok := domain.FindDataset(rt.datasets, args[0])
			if !ok {
				return domain.ErrNotFound("table %q is not in the dataset catalog", args[0])
			}

			a, err := app.New(cmd.Context(), rt.cfg, rt.datasets, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			info, err := a.Lakehouse.DescribeTable(cmd.Context(), ds.Table)
			if err != nil {
				return err
			}
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), info)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s.%s.%s  rows=%d\n\n", rt.cfg.LakeCatalog, rt.cfg.SilverSchema, info.Table, info.Rows)
			rows := make([][]string, 0, len(info.Columns))
			for _, c := range info.Columns {
				rows = append(rows, []string{c.Name, c.Type})
			}
			return printTable(cmd.OutOrStdout(), []string{"column", "type"}, rows)
		},
	}
}

func newTablesSnapshotsCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List the catalog's table versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), rt.cfg, rt.datasets, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			snaps, err := a.Lakehouse.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), snaps)
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				t := s.Time
				rows = append(rows, []string{
					fmt.Sprint(s.ID), formatTime(&t), fmt.Sprint(s.SchemaVer), strings.TrimSpace(s.Changes),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"snapshot", "time", "schema_version", "changes"}, rows)
		},
	}
}
