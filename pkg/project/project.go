// Package project holds the analysed workspaces of one run and persists
// them as a single artifact.
package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// Status is the outcome of a workspace
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Project is the ordered collection of workspaces produced by one run
type Project struct {
	ID         uuid.UUID
	Name       string
	CreatedAt  time.Time
	Workspaces []*Workspace
}

// Workspace is one input file with its own graph. Workspaces never share
// graph data.
type Workspace struct {
	ID        uuid.UUID
	Name      string
	Source    string
	Format    string
	Status    Status
	ErrorKind string
	Error     string
	Summary   Summary
	Graph     *storage.GraphStorage
}

// Summary records what each stage produced for a workspace
type Summary struct {
	Nodes               uint64        `json:"nodes"`
	Edges               uint64        `json:"edges"`
	Communities         int           `json:"communities"`
	Modularity          float64       `json:"modularity"`
	ModularityLevels    int           `json:"modularity_levels"`
	ModularityConverged bool          `json:"modularity_converged"`
	PageRankIterations  int           `json:"pagerank_iterations"`
	PageRankConverged   bool          `json:"pagerank_converged"`
	LayoutIterations    int           `json:"layout_iterations"`
	Components          int           `json:"components"`
	Warnings            []string      `json:"warnings,omitempty"`
	Duration            time.Duration `json:"duration"`
}

// New creates an empty project
func New(name string) *Project {
	return &Project{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// NewWorkspace creates a pending workspace with its own graph
func NewWorkspace(name, source, format string, graph *storage.GraphStorage) *Workspace {
	return &Workspace{
		ID:     uuid.New(),
		Name:   name,
		Source: source,
		Format: format,
		Status: StatusPending,
		Graph:  graph,
	}
}

// Workspace returns the workspace with the given name
func (p *Project) Workspace(name string) (*Workspace, bool) {
	for _, ws := range p.Workspaces {
		if ws.Name == name {
			return ws, true
		}
	}
	return nil, false
}

// Fail marks the workspace as failed with the given error kind
func (w *Workspace) Fail(kind string, err error) {
	w.Status = StatusFailed
	w.ErrorKind = kind
	if err != nil {
		w.Error = err.Error()
	}
}
