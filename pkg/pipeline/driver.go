// Package pipeline drives every input through import, community detection,
// ranking and layout, and saves the resulting project once.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-atlas/pkg/algorithms"
	"github.com/dd0wney/cluso-atlas/pkg/config"
	"github.com/dd0wney/cluso-atlas/pkg/ingest"
	"github.com/dd0wney/cluso-atlas/pkg/logging"
	"github.com/dd0wney/cluso-atlas/pkg/metrics"
	"github.com/dd0wney/cluso-atlas/pkg/parallel"
	"github.com/dd0wney/cluso-atlas/pkg/project"
	"github.com/dd0wney/cluso-atlas/pkg/storage"
	"github.com/dd0wney/cluso-atlas/pkg/visualization"
)

// Loader imports one input file into graph
type Loader func(ctx context.Context, path, format string, graph *storage.GraphStorage) error

// Driver runs the configured inputs. It holds the engines directly; there
// is no stage registry.
type Driver struct {
	cfg        *config.Config
	logger     logging.Logger
	metrics    *metrics.Registry
	loader     Loader
	modularity *algorithms.ModularityEngine
	pagerank   *algorithms.PageRankEngine
	palette    *visualization.Palette
	sink       project.Sink
	progress   func(workspace string, iteration int)
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithMetrics sets the metrics registry
func WithMetrics(reg *metrics.Registry) Option {
	return func(d *Driver) { d.metrics = reg }
}

// WithLoader replaces the file loader
func WithLoader(loader Loader) Option {
	return func(d *Driver) { d.loader = loader }
}

// WithSink writes the artifact to sink instead of the configured output
func WithSink(sink project.Sink) Option {
	return func(d *Driver) { d.sink = sink }
}

// WithPalette sets the community colours
func WithPalette(palette *visualization.Palette) Option {
	return func(d *Driver) { d.palette = palette }
}

// WithProgress registers a callback for layout progress
func WithProgress(fn func(workspace string, iteration int)) Option {
	return func(d *Driver) { d.progress = fn }
}

// NewDriver validates cfg and builds a driver
func NewDriver(cfg *config.Config, opts ...Option) (*Driver, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		cfg:        cfg,
		logger:     logging.DefaultLogger(),
		metrics:    metrics.NewRegistry(),
		loader:     ingest.Load,
		modularity: algorithms.NewModularityEngine(cfg.Modularity.ModularityOptions()),
		pagerank:   algorithms.NewPageRankEngine(cfg.PageRank.PageRankOptions()),
		palette:    visualization.DefaultPalette(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(logging.Component("pipeline"))
	return d, nil
}

// Metrics returns the registry the driver records into
func (d *Driver) Metrics() *metrics.Registry {
	return d.metrics
}

// Run processes every input, isolating failures per workspace, then saves
// the project once. Workspaces that failed are saved with their error. The
// returned error is non-nil only when the project could not be saved; the
// report is returned either way.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	inputs := d.cfg.Inputs
	proj := project.New(d.cfg.Project.Name)
	report := &Report{Project: proj, Results: make([]WorkspaceResult, len(inputs))}
	workspaces := make([]*project.Workspace, len(inputs))

	d.logger.Info("pipeline started",
		logging.Count(len(inputs)),
		logging.Int("parallelism", d.cfg.Parallelism))

	// each index owns its slots, so no locking is needed
	err := parallel.ForEach(ctx, d.cfg.Parallelism, len(inputs), d.logger, func(ctx context.Context, i int) {
		workspaces[i], report.Results[i] = d.runWorkspace(ctx, inputs[i])
	})
	if err != nil {
		return report, err
	}
	proj.Workspaces = workspaces

	// the work done so far is saved even when the run was canceled
	saveErr := d.save(context.WithoutCancel(ctx), report)

	if dir := d.cfg.Project.GEXFDir; dir != "" && saveErr == nil {
		paths, err := project.ExportGEXF(dir, proj, d.palette)
		report.ExportPaths = paths
		if err != nil {
			d.logger.Error("gexf export failed", logging.Path(dir), logging.Error(err))
		} else {
			d.logger.Info("gexf exported", logging.Path(dir), logging.Count(len(paths)))
		}
	}

	report.Duration = time.Since(start)
	d.metrics.RecordRun(report.Duration)
	if path := d.cfg.Metrics.Textfile; path != "" {
		if err := d.metrics.WriteTextfile(path); err != nil {
			d.logger.Warn("metrics textfile not written", logging.Path(path), logging.Error(err))
		}
	}

	failed := len(report.Failed())
	d.logger.Info("pipeline finished",
		logging.Count(len(inputs)),
		logging.Int("failed", failed),
		logging.Latency(report.Duration))
	return report, saveErr
}

func (d *Driver) save(ctx context.Context, report *Report) error {
	sink := d.sink
	if sink == nil {
		var err error
		sink, err = project.OpenSink(ctx, d.cfg.Project.Output, d.cfg.Project.S3Region)
		if err != nil {
			d.metrics.RecordSave("error", 0)
			d.logger.Error("project save failed", logging.Path(d.cfg.Project.Output), logging.Error(err))
			return err
		}
	}
	report.Target = sink.String()

	size, err := project.Save(ctx, report.Project, sink)
	if err != nil {
		d.metrics.RecordSave("error", 0)
		d.logger.Error("project save failed", logging.Path(report.Target), logging.Error(err))
		return err
	}

	report.Saved = true
	d.metrics.RecordSave("success", size)
	d.logger.Info("project saved",
		logging.Path(report.Target),
		logging.Count(len(report.Project.Workspaces)),
		logging.Int("bytes", size))
	return nil
}
