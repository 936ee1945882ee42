package ingest

import (
	"bytes"

	"github.com/dd0wney/cluso-atlas/pkg/gexf"
	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// GEXFProcessor handles GEXF 1.x documents
type GEXFProcessor struct{}

// GetName returns the processor format
func (p *GEXFProcessor) GetName() string {
	return FormatGEXF
}

// ProcessData decodes a GEXF document into import batches
func (p *GEXFProcessor) ProcessData(data []byte) ([]storage.NodeRecord, []storage.EdgeRecord, error) {
	doc, err := gexf.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return doc.Records()
}
