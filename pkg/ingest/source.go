package ingest

import (
	"fmt"

	"golang.org/x/exp/mmap"
)

// ReadFile maps path into memory and copies its contents out, so the
// mapping is released before parsing starts.
func ReadFile(path string) ([]byte, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	data := make([]byte, reader.Len())
	if len(data) == 0 {
		return data, nil
	}
	n, err := reader.ReadAt(data, 0)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data[:n], nil
}
