package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/ideamans/go-sheetproc"
	"github.com/ideamans/go-sheetproc/adapters/excel"
	"github.com/ideamans/go-sheetproc/adapters/googlesheets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

const (
	BackendGoogle = "google"
	BackendExcel  = "excel"
)

// Options holds the global flags shared by every subcommand
type Options struct {
	ConfigPath string
	Backend    string
	Debug      bool
	Metrics    bool

	Logger   *slog.Logger
	Registry *prometheus.Registry
	metrics  *sheetproc.Metrics
}

// NewRootCommand builds the sheetproc command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "sheetproc",
		Short: "Read and edit procurement process spreadsheets",
		Long: `sheetproc reads records from the first worksheet of a spreadsheet,
updates single cells by identifier and maintains the processes sheet
named in the configuration file.

Spreadsheets are addressed by their Google Sheets URL, or by file path
with --backend excel.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.Debug {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			opts.Registry = prometheus.NewRegistry()
			opts.metrics = sheetproc.NewMetrics(opts.Registry)

			if opts.Backend != BackendGoogle && opts.Backend != BackendExcel {
				return fmt.Errorf("unknown backend %q (expected %s or %s)", opts.Backend, BackendGoogle, BackendExcel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Metrics {
				return nil
			}
			return writeMetrics(cmd.ErrOrStderr(), opts.Registry)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.json", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&opts.Backend, "backend", BackendGoogle, "Spreadsheet backend: google or excel")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "Print operation metrics to stderr on exit")

	rootCmd.AddCommand(
		NewRecordsCommand(opts),
		NewHeadersCommand(opts),
		NewQueryCommand(opts),
		NewUpdateCommand(opts),
		NewAppendCommand(opts),
		NewProcessesCommand(opts),
	)

	return rootCmd
}

func (o *Options) connector() sheetproc.Connector {
	if o.Backend == BackendExcel {
		return excel.Connect
	}
	return googlesheets.Connect
}

// Handler loads the configuration and authenticates. Unlike sheetproc.Create
// it reports configuration and credential problems to the caller.
func (o *Options) Handler(ctx context.Context) (*sheetproc.Handler, error) {
	config, err := sheetproc.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	h := sheetproc.New(config, o.connector(), sheetproc.WithLogger(o.Logger), sheetproc.WithMetrics(o.metrics))
	if err := h.Authenticate(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// address returns the first argument, or the configured processes sheet
func address(h *sheetproc.Handler, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if url := h.Config().ProcessesSheetURL; url != "" {
		return url, nil
	}
	return "", fmt.Errorf("no spreadsheet address given and procesos_sheet_url is not configured")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func toValues(args []string) []interface{} {
	values := make([]interface{}, len(args))
	for i, a := range args {
		values[i] = a
	}
	return values
}
