package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "lakeload version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
