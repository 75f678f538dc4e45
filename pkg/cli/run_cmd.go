package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lakeload/internal/app"
	"lakeload/internal/domain"
)

// newStageCmd builds bronze, silver and run: each executes a recorded run of
// the given stages.
func newStageCmd(rt *env, use, short string, stages ...domain.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := app.New(ctx, rt.cfg, rt.datasets, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			user := os.Getenv("USER")
			if user == "" {
				user = "cli"
			}
			run, runErr := a.Runner.Run(ctx, domain.RunRequest{
				Stages:      stages,
				TriggerType: domain.TriggerTypeManual,
				TriggeredBy: user,
			})
			if run != nil {
				if err := printRun(cmd.OutOrStdout(), rt.output, run); err != nil {
					return err
				}
			}
			return runErr
		},
	}
}
