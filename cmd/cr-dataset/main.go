// Package main provides the command line entry point for building archetype
// aware match outcome datasets from a Clash Royale battle store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ramonehamilton/cr-analysis/internal/archetype"
	"github.com/ramonehamilton/cr-analysis/internal/charts"
	"github.com/ramonehamilton/cr-analysis/internal/config"
	"github.com/ramonehamilton/cr-analysis/internal/dataset"
	"github.com/ramonehamilton/cr-analysis/internal/export"
	"github.com/ramonehamilton/cr-analysis/internal/logging"
	"github.com/ramonehamilton/cr-analysis/internal/pipeline"
	"github.com/ramonehamilton/cr-analysis/internal/report"
	"github.com/ramonehamilton/cr-analysis/internal/storage"
	"github.com/ramonehamilton/cr-analysis/internal/version"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: cr-dataset <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  build        Build X_train.npy and y_train.npy from the battle store")
	fmt.Fprintln(os.Stderr, "  report       Print the top cards of each archetype")
	fmt.Fprintln(os.Stderr, "  init-store   Create an empty battle store with the current schema")
	fmt.Fprintln(os.Stderr, "  init-config  Write the default configuration file")
	fmt.Fprintln(os.Stderr, "  version      Print the build version")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'cr-dataset <command> -h' for command flags.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(ctx, os.Args[2:])
	case "report":
		err = runReport(ctx, os.Args[2:])
	case "init-store":
		err = runInitStore(os.Args[2:])
	case "init-config":
		err = runInitConfig(os.Args[2:])
	case "version":
		fmt.Printf("cr-dataset %s\n", version.GetVersion())
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %s\n", diagnose(err))
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		os.Exit(1)
	}
}

// diagnose maps a failure to a one line explanation for the operator.
func diagnose(err error) string {
	switch {
	case errors.Is(err, storage.ErrStoreNotFound):
		return "battle store not found; check -db or [store] path"
	case errors.Is(err, storage.ErrQueryFailure):
		return "battle store could not be read; is the schema current?"
	case errors.Is(err, archetype.ErrClusteringUnavailable):
		return "archetype assignment failed; no dataset was written"
	case errors.Is(err, dataset.ErrEmptyDataset):
		return "no match survived labeling and joins; no dataset was written"
	case errors.Is(err, export.ErrWriteFailure):
		return "artifacts could not be written"
	default:
		return "dataset build failed"
	}
}

// commonFlags are shared by the commands that read the battle store.
type commonFlags struct {
	configPath *string
	envFile    *string
	dbPath     *string
	clusters   *int
	debug      *bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", "", "Path to TOML configuration file"),
		envFile:    fs.String("env-file", ".env", "Dotenv file applied over the configuration file"),
		dbPath:     fs.String("db", "", "Path to the battle store (overrides config)"),
		clusters:   fs.Int("k", 0, "Number of archetypes (overrides config)"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
	}
}

// load resolves configuration as defaults, then file, then environment, then
// explicitly set flags.
func (c *commonFlags) load(fs *flag.FlagSet, apply func(cfg *config.Config, name string)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(*c.envFile); err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.Store.Path = *c.dbPath
		case "k":
			cfg.Archetype.K = *c.clusters
		case "debug":
			cfg.App.DebugMode = *c.debug
		default:
			if apply != nil {
				apply(cfg, f.Name)
			}
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.App.DebugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	common := registerCommon(fs)
	featureSet := fs.String("features", "", "Feature set: basic or extended (overrides config)")
	outDir := fs.String("out", "", "Directory for the written artifacts (overrides config)")
	format := fs.String("format", "", "Artifact format: npy or csv (overrides config)")
	manifest := fs.String("manifest", "", "Also write a JSON manifest to this path")
	verify := fs.Bool("verify", false, "Reload the written artifacts and compare them")
	saveAssignments := fs.String("save-assignments", "", "Save the archetype assignment as JSON for the static provider")
	_ = fs.Parse(args)

	cfg, logger, err := common.load(fs, func(cfg *config.Config, name string) {
		switch name {
		case "features":
			cfg.Features.Set = *featureSet
		case "format":
			cfg.Output.Format = *format
		case "manifest":
			cfg.Output.ManifestPath = *manifest
		case "out":
			cfg.SetOutputDir(*outDir)
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p := pipeline.New(cfg, cfg.NewProvider(), logger)
	p.SetVerify(*verify)
	p.SetAssignmentsOut(*saveAssignments)

	metrics, err := p.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d rows x %d columns (%d positive, %d negative)\n",
		metrics.Rows, len(metrics.Columns), metrics.Positives, metrics.Rows-metrics.Positives)
	fmt.Printf("  features: %s\n", cfg.Output.FeaturesPath)
	fmt.Printf("  labels:   %s\n", cfg.Output.LabelsPath)
	fmt.Printf("Excluded: %d draws, %d invalid, %d unmapped archetype, %d missing deck features\n",
		metrics.Draws, metrics.InvalidCrowns, metrics.UnmappedArchetype, metrics.MissingDeckFeatures)
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	common := registerCommon(fs)
	topN := fs.Int("top", 0, "Cards listed per archetype (overrides config)")
	chartPath := fs.String("chart", "", "Write an HTML bar chart page to this path")
	open := fs.Bool("open", false, "Open the chart page in the default browser")
	_ = fs.Parse(args)

	cfg, logger, err := common.load(fs, func(cfg *config.Config, name string) {
		switch name {
		case "top":
			cfg.Report.TopN = *topN
		case "chart":
			cfg.Report.ChartPath = *chartPath
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	summaries, err := pipeline.New(cfg, cfg.NewProvider(), logger).Summarize(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteText(os.Stdout, summaries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.Report.ChartPath == "" {
		return nil
	}
	if err := report.RenderCharts(summaries, cfg.Report.ChartPath); err != nil {
		return err
	}
	fmt.Printf("Chart written to %s\n", cfg.Report.ChartPath)
	if *open {
		if err := charts.OpenInBrowser(cfg.Report.ChartPath); err != nil {
			logger.Warn("failed to open chart", zap.Error(err))
		}
	}
	return nil
}

func runInitStore(args []string) error {
	fs := flag.NewFlagSet("init-store", flag.ExitOnError)
	dbPath := fs.String("db", "", "Path of the battle store to create")
	_ = fs.Parse(args)

	if *dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if err := storage.InitSchema(*dbPath); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}

	fmt.Printf("Battle store ready at %s\n", *dbPath)
	return nil
}

func runInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	outPath := fs.String("out", "cr-dataset.toml", "Path of the configuration file to write")
	force := fs.Bool("force", false, "Replace an existing file")
	_ = fs.Parse(args)

	if _, err := os.Stat(*outPath); err == nil && !*force {
		return fmt.Errorf("file already exists: %s (use -force to replace)", *outPath)
	}
	if err := config.DefaultConfig().Save(*outPath); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", *outPath)
	return nil
}
