package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	internaldb "lakeload/internal/db"
	"lakeload/internal/db/repository"
	"lakeload/internal/domain"
)

func newRunsCmd(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run history",
	}
	cmd.AddCommand(newRunsListCmd(rt), newRunsGetCmd(rt))
	return cmd
}

func newRunsListCmd(rt *env) *cobra.Command {
	var (
		maxResults int
		status     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, closeFn, err := openRunHistory(cmd.Context(), rt.cfg.RunsDBPath)
			if err != nil {
				return err
			}
			defer closeFn()

			filter := domain.RunFilter{Page: domain.PageRequest{MaxResults: maxResults}}
			if status != "" {
				s := strings.ToUpper(status)
				filter.Status = &s
			}
			runs, total, err := repo.ListRuns(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{"runs": runs, "total": total})
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID, r.Status, stagesString(r.Stages), r.TriggerType, r.TriggeredBy,
					formatTime(r.StartedAt), formatTime(r.FinishedAt), deref(r.ErrorMessage),
				})
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"id", "status", "stages", "trigger", "by", "started", "finished", "error"}, rows)
		},
	}
	cmd.Flags().IntVar(&maxResults, "max-results", domain.DefaultMaxResults, "Maximum number of runs to show")
	cmd.Flags().StringVar(&status, "status", "", "Only show runs with this status")
	return cmd
}

func newRunsGetCmd(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <run-id>",
		Short: "Show a run and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := openRunHistory(cmd.Context(), rt.cfg.RunsDBPath)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := repo.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), rt.output, run)
		},
	}
}

// openRunHistory opens only the run history store; it does not need the
// engine or raw storage.
func openRunHistory(ctx context.Context, path string) (*repository.RunRepo, func(), error) {
	writeDB, readDB, err := internaldb.OpenSQLitePair(path, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open run history: %w", err)
	}
	closeFn := func() {
		for _, db := range []*sql.DB{readDB, writeDB} {
			_ = db.Close()
		}
	}
	if err := internaldb.RunMigrations(ctx, writeDB); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate run history: %w", err)
	}
	return repository.NewRunRepo(writeDB, readDB), closeFn, nil
}
