package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dd0wney/cluso-atlas/pkg/algorithms"
	"github.com/dd0wney/cluso-atlas/pkg/config"
	"github.com/dd0wney/cluso-atlas/pkg/logging"
	"github.com/dd0wney/cluso-atlas/pkg/project"
	"github.com/dd0wney/cluso-atlas/pkg/storage"
	"github.com/dd0wney/cluso-atlas/pkg/visualization"
)

// Stage names used in logs and metrics
const (
	StageImport     = "import"
	StageModularity = "modularity"
	StageComponents = "components"
	StagePageRank   = "pagerank"
	StageSizes      = "sizes"
	StageLayout     = "layout"
)

// workspaceRun carries the state of one input through the stages
type workspaceRun struct {
	driver *Driver
	ws     *project.Workspace
	logger logging.Logger
	stage  string
}

// runWorkspace processes one input in isolation. It never panics and never
// returns an error: every failure ends up in the result.
func (d *Driver) runWorkspace(ctx context.Context, in config.InputConfig) (ws *project.Workspace, result WorkspaceResult) {
	start := time.Now()
	graph := storage.NewGraphStorage(storage.WithForcedDirection(d.cfg.ForceDirected))
	ws = project.NewWorkspace(in.Name, in.Path, in.Format, graph)
	run := &workspaceRun{
		driver: d,
		ws:     ws,
		logger: d.logger.With(logging.Workspace(in.Name)),
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic in %s: %v", run.stage, r)
			run.logger.Error("workspace panicked",
				logging.Stage(run.stage),
				logging.Error(err),
				logging.String("stack", string(debug.Stack())))
			ws.Fail(string(KindPanic), err)
			result.Kind = KindPanic
			result.Err = err
		}

		ws.Summary.Duration = time.Since(start)
		stats := graph.GetStatistics()
		ws.Summary.Nodes, ws.Summary.Edges = stats.NodeCount, stats.EdgeCount

		result.Name = in.Name
		result.Source = in.Path
		result.Status = ws.Status
		if result.Kind != KindNone {
			result.Stage = run.stage
			d.metrics.RecordFailure(run.stage, string(result.Kind))
		}
		result.Summary = ws.Summary
		result.Duration = ws.Summary.Duration
		d.metrics.RecordWorkspace(in.Name, string(ws.Status), stats.NodeCount, stats.EdgeCount)
	}()

	if err := run.execute(ctx, in); err != nil {
		kind := classify(err)
		result.Kind = kind
		result.Err = err
		if kind == KindLayoutInterrupted {
			ws.Status = project.StatusInterrupted
			ws.ErrorKind = string(kind)
			ws.Error = err.Error()
		} else {
			ws.Fail(string(kind), err)
		}
		run.logger.Error("workspace failed",
			logging.Stage(run.stage),
			logging.String("kind", string(kind)),
			logging.Error(err))
		return ws, result
	}

	ws.Status = project.StatusCompleted
	run.logger.Info("workspace completed",
		logging.Uint64("nodes", ws.Graph.GetStatistics().NodeCount),
		logging.Int("communities", ws.Summary.Communities),
		logging.Latency(time.Since(start)))
	return ws, result
}

// execute runs the stages in order and stops at the first failure
func (r *workspaceRun) execute(ctx context.Context, in config.InputConfig) error {
	d := r.driver
	graph := r.ws.Graph

	if err := r.step(ctx, StageImport, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Debug("loading input", logging.Path(in.Path))
		return d.loader(ctx, in.Path, in.Format, graph)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StageModularity, func() error {
		res, err := d.modularity.Run(ctx, graph)
		if err != nil {
			return err
		}
		r.ws.Summary.Communities = len(res.Communities)
		r.ws.Summary.Modularity = res.Modularity
		r.ws.Summary.ModularityLevels = res.Levels
		r.ws.Summary.ModularityConverged = res.Converged
		r.warn(res.Warning())
		d.metrics.RecordModularity(r.ws.Name, len(res.Communities), res.Modularity)

		return visualization.ApplyCommunityColors(graph, d.palette)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StageComponents, func() error {
		res, err := algorithms.AnnotateComponents(graph)
		if err != nil {
			return err
		}
		r.ws.Summary.Components = len(res.Communities)
		d.metrics.RecordComponents(r.ws.Name, len(res.Communities))
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StagePageRank, func() error {
		res, err := d.pagerank.Run(ctx, graph)
		if err != nil {
			return err
		}
		r.ws.Summary.PageRankIterations = res.Iterations
		r.ws.Summary.PageRankConverged = res.Converged
		r.warn(res.Warning())
		d.metrics.RecordPageRank(r.ws.Name, res.Iterations)
		for _, top := range res.TopNodes {
			r.logger.Debug("top ranked node",
				logging.Uint64("node", top.NodeID),
				logging.Float64("score", top.Score))
		}
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StageSizes, func() error {
		return visualization.ApplyRankSizes(graph, d.cfg.Sizes.Min, d.cfg.Sizes.Max)
	}); err != nil {
		return err
	}

	return r.step(ctx, StageLayout, func() error {
		fa2 := d.cfg.Layout.ForceAtlas2Config()
		fa2.Logger = r.logger.With(logging.Stage(StageLayout))
		if d.progress != nil {
			name := r.ws.Name
			fa2.Progress = func(iteration int) { d.progress(name, iteration) }
		}
		res, err := visualization.NewForceAtlas2(fa2).Run(ctx, graph, d.cfg.Layout.Iterations)
		if res != nil {
			r.ws.Summary.LayoutIterations = res.Iterations
			d.metrics.RecordLayout(r.ws.Name, res.Iterations, res.Speed)
		}
		return err
	})
}

// step logs and times one stage. Stage names double as log messages:
// "running modularity", "modularity done".
func (r *workspaceRun) step(ctx context.Context, name string, fn func() error) error {
	r.stage = name
	logger := r.logger.With(logging.Stage(name))
	logger.Info("running " + name)
	timer := logging.StartTimer(logger, name+" done")

	err := fn()
	var elapsed time.Duration
	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, visualization.ErrLayoutInterrupted) || ctx.Err() != nil {
			status = "canceled"
		}
		elapsed = timer.EndError(err)
	} else {
		elapsed = timer.End()
	}
	r.driver.metrics.RecordStage(name, status, elapsed)
	return err
}

// warn records a convergence warning without failing the workspace
func (r *workspaceRun) warn(w *algorithms.ConvergenceWarning) {
	if w == nil {
		return
	}
	r.logger.Warn("convergence warning",
		logging.String("engine", w.Engine),
		logging.Int("iterations", w.Iterations))
	r.ws.Summary.Warnings = append(r.ws.Summary.Warnings, w.Error())
	r.driver.metrics.RecordConvergenceWarning(w.Engine)
}
