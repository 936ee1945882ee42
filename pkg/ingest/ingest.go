// Package ingest loads graph files into a GraphStorage.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// Supported input formats
const (
	FormatGEXF = "gexf"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// DataProcessor turns the raw bytes of one file into import batches
type DataProcessor interface {
	// ProcessData parses data into node and edge records
	ProcessData(data []byte) ([]storage.NodeRecord, []storage.EdgeRecord, error)

	// GetName returns the format handled by the processor
	GetName() string
}

// ImportError reports an input file that could not be read or parsed
type ImportError struct {
	Path   string
	Format string
	Cause  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s (%s): %v", e.Path, e.Format, e.Cause)
}

func (e *ImportError) Unwrap() error {
	return e.Cause
}

// DetectFormat derives the input format from the file extension
func DetectFormat(path string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case FormatGEXF, FormatCSV, FormatJSON:
		return ext, nil
	default:
		return "", fmt.Errorf("cannot detect format of %q", path)
	}
}

// GetProcessor returns the processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case FormatGEXF:
		return &GEXFProcessor{}, nil
	case FormatCSV:
		return &CSVProcessor{}, nil
	case FormatJSON:
		return &JSONProcessor{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Load reads path and imports it into graph. An empty format is detected
// from the extension. Nodes are imported before edges so that declared
// labels win over keys. Every failure is an *ImportError.
func Load(ctx context.Context, path, format string, graph *storage.GraphStorage) error {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return &ImportError{Path: path, Format: "unknown", Cause: err}
		}
		format = detected
	}
	wrap := func(err error) error {
		return &ImportError{Path: path, Format: format, Cause: err}
	}

	processor, err := GetProcessor(format)
	if err != nil {
		return wrap(err)
	}
	if err := ctx.Err(); err != nil {
		return wrap(err)
	}

	data, err := ReadFile(path)
	if err != nil {
		return wrap(err)
	}

	nodes, edges, err := processor.ProcessData(data)
	if err != nil {
		return wrap(err)
	}
	if err := graph.ImportNodes(nodes); err != nil {
		return wrap(err)
	}
	if err := graph.ImportEdges(edges); err != nil {
		return wrap(err)
	}
	return nil
}
