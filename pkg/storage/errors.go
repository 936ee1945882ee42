package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrDuplicateNode   = errors.New("duplicate node key")
	ErrMalformedInput  = errors.New("malformed input")
	ErrSchemaMismatch  = errors.New("attribute type mismatch")
	ErrInvalidWeight   = errors.New("invalid edge weight")
	ErrEmptyIdentifier = errors.New("empty node identifier")
)

// StorageError provides structured error information for storage operations.
type StorageError struct {
	Op      string // Operation that failed (e.g., "ImportEdges", "SetNodeProperties")
	Entity  string // Entity type ("node", "edge", "graph")
	ID      uint64 // Entity ID (if applicable)
	Key     string // External node key (if applicable)
	Field   string // Attribute name (for property operations)
	Record  int    // 1-based record number within an import batch, 0 when unknown
	Cause   error
	Context string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	subject := e.Entity
	switch {
	case e.Key != "":
		subject = fmt.Sprintf("%s %q", e.Entity, e.Key)
	case e.ID != 0:
		subject = fmt.Sprintf("%s %d", e.Entity, e.ID)
	}
	if e.Record > 0 {
		subject = fmt.Sprintf("%s (record %d)", subject, e.Record)
	}
	if e.Field != "" {
		subject = fmt.Sprintf("%s (field %s)", subject, e.Field)
	}
	if e.Context != "" {
		subject = fmt.Sprintf("%s (%s)", subject, e.Context)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building StorageErrors.
type ErrorBuilder struct {
	err StorageError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StorageError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id uint64) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// NodeKey sets the entity to "node" with the given external key.
func (b *ErrorBuilder) NodeKey(key string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.Key = key
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id uint64) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Record sets the entity and the zero-based index of the offending import
// record. A negative index leaves the record number unset.
func (b *ErrorBuilder) Record(entity string, index int) *ErrorBuilder {
	b.err.Entity = entity
	if index >= 0 {
		b.err.Record = index + 1
	}
	return b
}

// Field sets the attribute name for property operations.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed StorageError.
func (b *ErrorBuilder) Build() *StorageError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(nodeID uint64) error {
	return NewError("get").Node(nodeID).Cause(ErrNodeNotFound).Err()
}

// EdgeNotFoundError creates an edge not found error.
func EdgeNotFoundError(edgeID uint64) error {
	return NewError("get").Edge(edgeID).Cause(ErrEdgeNotFound).Err()
}

// MalformedInputError wraps cause so that errors.Is(err, ErrMalformedInput)
// holds alongside the specific cause.
func MalformedInputError(op, entity string, index int, cause error) *ErrorBuilder {
	return NewError(op).Record(entity, index).Cause(&malformed{cause: cause})
}

type malformed struct {
	cause error
}

func (m *malformed) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedInput, m.cause)
}

func (m *malformed) Unwrap() []error {
	return []error{ErrMalformedInput, m.cause}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound)
}

// IsMalformed returns true if the error describes unusable input data.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}
