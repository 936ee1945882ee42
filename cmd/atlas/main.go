// Command atlas imports the interaction graphs, runs community detection,
// PageRank and ForceAtlas2 on each of them, and saves one project file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-atlas/pkg/config"
	"github.com/dd0wney/cluso-atlas/pkg/logging"
	"github.com/dd0wney/cluso-atlas/pkg/pipeline"
)

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1 // bad configuration or project not saved
	exitPartial = 2 // project saved, some workspace failed
)

type options struct {
	configPath  string
	output      string
	exportDir   string
	iterations  int
	parallelism int
	logLevel    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file (default: the five reference inputs)")
	flag.StringVar(&opts.output, "output", "", "Project artifact path or s3://bucket/key")
	flag.StringVar(&opts.exportDir, "export", "", "Also write one GEXF file per completed workspace to this directory")
	flag.IntVar(&opts.iterations, "iterations", -1, "ForceAtlas2 iterations per workspace")
	flag.IntVar(&opts.parallelism, "parallel", 0, "Workspaces processed concurrently")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (or set LOG_LEVEL)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts, os.Stdout, os.Stderr))
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "atlas: %v\n", err)
		return exitFailure
	}

	logger := logging.NewJSONLogger(stdout, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)

	driver, err := pipeline.NewDriver(cfg, pipeline.WithLogger(logger))
	if err != nil {
		logger.Error("invalid configuration", logging.Error(err))
		return exitFailure
	}

	report, err := driver.Run(ctx)
	if err != nil {
		logger.Error("run failed", logging.Error(err))
		return exitFailure
	}
	return exitCode(report)
}

// loadConfig applies flags and LOG_LEVEL over the file or the defaults
func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	if opts.output != "" {
		cfg.Project.Output = opts.output
	}
	if opts.exportDir != "" {
		cfg.Project.GEXFDir = opts.exportDir
	}
	if opts.iterations >= 0 {
		cfg.Layout.Iterations = opts.iterations
	}
	if opts.parallelism > 0 {
		cfg.Parallelism = opts.parallelism
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func exitCode(report *pipeline.Report) int {
	switch {
	case !report.Saved:
		return exitFailure
	case len(report.Failed()) > 0:
		return exitPartial
	default:
		return exitOK
	}
}
