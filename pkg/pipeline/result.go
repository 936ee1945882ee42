package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dd0wney/cluso-atlas/pkg/ingest"
	"github.com/dd0wney/cluso-atlas/pkg/project"
	"github.com/dd0wney/cluso-atlas/pkg/visualization"
)

// ErrorKind classifies why a workspace did not complete
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindImport            ErrorKind = "import"
	KindAnalysis          ErrorKind = "analysis"
	KindLayoutInterrupted ErrorKind = "layout_interrupted"
	KindCanceled          ErrorKind = "canceled"
	KindPanic             ErrorKind = "panic"
)

// classify maps a stage error onto its kind
func classify(err error) ErrorKind {
	var importErr *ingest.ImportError
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, visualization.ErrLayoutInterrupted):
		return KindLayoutInterrupted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &importErr):
		return KindImport
	default:
		return KindAnalysis
	}
}

// WorkspaceResult is the outcome of one input
type WorkspaceResult struct {
	Name     string
	Source   string
	Status   project.Status
	Kind     ErrorKind
	Stage    string // stage that failed, empty on success
	Err      error
	Summary  project.Summary
	Duration time.Duration
}

// OK reports whether every stage completed
func (r WorkspaceResult) OK() bool {
	return r.Status == project.StatusCompleted
}

// Report summarizes a pipeline run
type Report struct {
	Project     *project.Project
	Results     []WorkspaceResult
	Target      string   // where the artifact was written
	Saved       bool
	ExportPaths []string // GEXF files written, if enabled
	Duration    time.Duration
}

// Failed returns the results that did not complete
func (r *Report) Failed() []WorkspaceResult {
	var failed []WorkspaceResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}
