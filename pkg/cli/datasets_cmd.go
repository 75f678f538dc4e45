package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lakeload/internal/catalog"
)

func newDatasetsCmd(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Print the active dataset catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), rt.datasets)
			}
			rows := make([][]string, 0, len(rt.datasets))
			for _, d := range rt.datasets {
				cols := make([]string, len(d.Columns))
				for i, c := range d.Columns {
					cols[i] = fmt.Sprintf("%s:%s", c.Name, c.Type)
				}
				dateFormat := "-"
				if d.InferDates {
					dateFormat = d.DateFormat
				}
				rows = append(rows, []string{d.Name, d.SourceFile, d.Table, dateFormat, strings.Join(cols, ",")})
			}
			return printTable(cmd.OutOrStdout(), []string{"name", "source", "table", "dates", "columns"}, rows)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write the active catalog as a YAML document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := catalog.Marshal(rt.datasets)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return cmd
}
