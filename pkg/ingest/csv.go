package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-atlas/pkg/storage"
)

// CSVProcessor handles edge lists with a header row. Recognised columns are
// source, target, weight and type; any other column becomes a string edge
// attribute.
type CSVProcessor struct{}

// GetName returns the processor format
func (p *CSVProcessor) GetName() string {
	return FormatCSV
}

// ProcessData parses an edge list. Nodes are implied by the edges.
func (p *CSVProcessor) ProcessData(data []byte) ([]storage.NodeRecord, []storage.EdgeRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("missing header row")
		}
		return nil, nil, fmt.Errorf("%w: %w", storage.ErrMalformedInput, err)
	}

	sourceIdx, targetIdx, weightIdx, typeIdx := -1, -1, -1, -1
	extras := make(map[int]string)
	for i, col := range header {
		switch name := strings.ToLower(strings.TrimSpace(col)); name {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "weight":
			weightIdx = i
		case "type", "label":
			typeIdx = i
		default:
			extras[i] = name
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return nil, nil, fmt.Errorf("%w: CSV must contain source and target columns", storage.ErrMalformedInput)
	}

	var edges []storage.EdgeRecord
	for i := 0; ; i++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, storage.MalformedInputError("csv", "edge", i, err).Err()
		}

		rec := storage.EdgeRecord{
			Source: strings.TrimSpace(row[sourceIdx]),
			Target: strings.TrimSpace(row[targetIdx]),
		}
		if weightIdx >= 0 {
			if raw := strings.TrimSpace(row[weightIdx]); raw != "" {
				w, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, nil, storage.MalformedInputError("csv", "edge", i, err).Field("weight").Err()
				}
				rec.Weight = w
			}
		}
		if typeIdx >= 0 {
			rec.Type = strings.TrimSpace(row[typeIdx])
		}
		if len(extras) > 0 {
			rec.Attributes = make(map[string]storage.Value, len(extras))
			for col, name := range extras {
				rec.Attributes[name] = storage.StringValue(row[col])
			}
		}
		edges = append(edges, rec)
	}
	return nil, edges, nil
}
