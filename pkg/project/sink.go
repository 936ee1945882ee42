package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives the encoded artifact
type Sink interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

// SaveError reports a failure to persist the project
type SaveError struct {
	Target string
	Cause  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save project to %s: %v", e.Target, e.Cause)
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}

// Save encodes p and hands it to sink, returning the artifact size. Every
// failure is a *SaveError.
func Save(ctx context.Context, p *Project, sink Sink) (int, error) {
	data, err := Marshal(p)
	if err != nil {
		return 0, &SaveError{Target: sink.String(), Cause: err}
	}
	if err := sink.Write(ctx, data); err != nil {
		return 0, &SaveError{Target: sink.String(), Cause: err}
	}
	return len(data), nil
}

// OpenSink returns an S3 sink for s3://bucket/key targets and a file sink
// for anything else.
func OpenSink(ctx context.Context, target, region string) (Sink, error) {
	if strings.HasPrefix(target, "s3://") {
		sink, err := NewS3Sink(ctx, target, region)
		if err != nil {
			return nil, &SaveError{Target: target, Cause: err}
		}
		return sink, nil
	}
	return &FileSink{Path: target}, nil
}

// FileSink writes the artifact to a local path. The file is replaced
// atomically so a failed save never leaves a truncated artifact.
type FileSink struct {
	Path string
}

func (s *FileSink) String() string {
	return s.Path
}

// Write stores data through a temporary file in the target directory
func (s *FileSink) Write(_ context.Context, data []byte) error {
	return writeAtomic(s.Path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Load reads a project artifact from a local path
func Load(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}
