package project

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/dd0wney/cluso-atlas/pkg/gexf"
)

// ExportGEXF writes one <name>.gexf per completed workspace into dir and
// returns the written paths.
func ExportGEXF(dir string, p *Project, colors gexf.Colorizer) ([]string, error) {
	var paths []string
	for _, ws := range p.Workspaces {
		if ws.Status != StatusCompleted || ws.Graph == nil {
			continue
		}

		var buf bytes.Buffer
		opts := gexf.WriteOptions{
			Creator:     p.Name,
			Description: fmt.Sprintf("%s (%s)", ws.Name, ws.Source),
			Colors:      colors,
		}
		if err := gexf.Write(&buf, ws.Graph, opts); err != nil {
			return paths, fmt.Errorf("export %s: %w", ws.Name, err)
		}

		path := filepath.Join(dir, ws.Name+".gexf")
		if err := writeAtomic(path, buf.Bytes()); err != nil {
			return paths, fmt.Errorf("export %s: %w", ws.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
