package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/benchviz/pkg/config"
	"github.com/ethpandaops/benchviz/pkg/loader"
	"github.com/ethpandaops/benchviz/pkg/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile         string
	logLevel        string
	resultsLocation string
	log             *logrus.Logger
)

func main() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("Failed to execute command")
	}
}

var rootCmd = &cobra.Command{
	Use:   "benchviz",
	Short: "Storage benchmark log analysis tool",
	Long: `Benchviz parses the JSON-lines logs written by storage benchmark runs
and turns them into summaries, charts, markdown reports and a dashboard API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "benchviz %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel,
		"log level ("+strings.Join(logLevels(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&resultsLocation, "results", "",
		"results location: a log file, a directory or s3://bucket/prefix "+
			"(overrides "+config.EnvPrefix+"_RESULTS_LOCATION and "+config.LegacyResultsEnv+")")

	rootCmd.AddCommand(versionCmd)
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}

// loadConfig reads and validates the configuration. Flags win over the
// config file and environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if resultsLocation != "" {
		cfg.Results.Location = resultsLocation
	}

	if !cmd.Flags().Changed("log-level") {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadRuns parses every log at the configured results location.
func loadRuns(ctx context.Context, cfg *config.Config) (*loader.Collection, error) {
	src, err := source.New(log, cfg.Results.Location, cfg.Results.S3)
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}

	return loader.Load(ctx, log, src, loader.Options{
		Concurrency: cfg.Results.Concurrency,
	})
}
