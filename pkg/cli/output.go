package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"lakeload/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes tab-aligned rows under an upper-cased header.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, r := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stagesString(stages []domain.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = strings.ToLower(string(s))
	}
	return strings.Join(parts, ",")
}

func printRun(w io.Writer, output string, run *domain.Run) error {
	if output == "json" {
		return printJSON(w, run)
	}
	_, _ = fmt.Fprintf(w, "Run %s  %s  stages=%s  started=%s  finished=%s\n",
		run.ID, run.Status, stagesString(run.Stages), formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if run.ErrorMessage != nil {
		_, _ = fmt.Fprintf(w, "Error: %s\n", *run.ErrorMessage)
	}
	if len(run.Steps) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(w)
	rows := make([][]string, 0, len(run.Steps))
	for _, s := range run.Steps {
		rows = append(rows, []string{
			strings.ToLower(string(s.Stage)),
			s.Dataset,
			s.Status,
			s.Target,
			fmt.Sprint(s.Bytes),
			fmt.Sprint(s.Rows),
			deref(s.ErrorMessage),
		})
	}
	return printTable(w, []string{"stage", "dataset", "status", "target", "bytes", "rows", "error"}, rows)
}
