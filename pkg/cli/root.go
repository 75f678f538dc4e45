// Package cli implements the lakeload command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"lakeload/internal/catalog"
	"lakeload/internal/config"
	"lakeload/internal/domain"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stderr)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{"error": err.Error()}
			var fe *domain.FetchError
			if errors.As(err, &fe) {
				errObj["http_status"] = fe.StatusCode
				errObj["url"] = fe.URL
			}
			_ = printJSON(stdout, errObj)
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// env is the resolved runtime shared by all subcommands.
type env struct {
	cfg      *config.Config
	datasets []domain.Dataset
	logger   *slog.Logger
	output   string
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	envFile      string
	datasetsFile string
	output       string
	logLevel     string
}

func (g *globalFlags) bind(pf *pflag.FlagSet) {
	pf.StringVar(&g.envFile, "env-file", ".env", "Environment file loaded before reading configuration")
	pf.StringVar(&g.datasetsFile, "datasets", "", "YAML dataset catalog replacing the built-in one")
	pf.StringVarP(&g.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	rt := &env{}

	rootCmd := &cobra.Command{
		Use:           "lakeload",
		Short:         "Bronze to silver lakehouse loader",
		Long:          "Downloads the sales CSV files into raw storage and loads them into versioned, schema-validated tables.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(flags.output); err != nil {
				return err
			}
			rt.output = strings.ToLower(flags.output)

			if err := config.LoadDotEnv(flags.envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}

			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = flags.logLevel
			}
			if cmd.Flags().Changed("datasets") {
				cfg.DatasetsFile = flags.datasetsFile
			}
			rt.cfg = cfg
			rt.logger = newLogger(stderr, cfg.SlogLevel())
			for _, w := range cfg.Warnings {
				rt.logger.Warn(w)
			}

			rt.datasets, err = catalog.Load(cfg.DatasetsFile)
			return err
		},
	}

	flags.bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newStageCmd(rt, "bronze", "Download the source CSV files into raw storage", domain.StageBronze))
	rootCmd.AddCommand(newStageCmd(rt, "silver", "Load raw files into schema-validated tables", domain.StageSilver))
	rootCmd.AddCommand(newStageCmd(rt, "run", "Run bronze then silver", domain.StageBronze, domain.StageSilver))
	rootCmd.AddCommand(newRunsCmd(rt))
	rootCmd.AddCommand(newDatasetsCmd(rt))
	rootCmd.AddCommand(newTablesCmd(rt))
	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newVersionCmd(rt))

	return rootCmd
}

// newLogger writes human-readable logs to terminals and JSON otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func validateOutputFormat(output string) error {
	switch strings.ToLower(output) {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
}
