package storage

import (
	"errors"
	"fmt"
	"testing"
)

func TestStorageError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StorageError
		expected string
	}{
		{
			name: "with ID",
			err: &StorageError{
				Op:     "get",
				Entity: "node",
				ID:     123,
				Cause:  ErrNodeNotFound,
			},
			expected: "get node 123: node not found",
		},
		{
			name: "with key and field",
			err: &StorageError{
				Op:     "CreateNode",
				Entity: "node",
				Key:    "alice",
				Field:  "followers",
				Cause:  fmt.Errorf("type mismatch"),
			},
			expected: `CreateNode node "alice" (field followers): type mismatch`,
		},
		{
			name: "with record",
			err: &StorageError{
				Op:     "ImportEdges",
				Entity: "edge",
				Record: 3,
				Cause:  ErrInvalidWeight,
			},
			expected: "ImportEdges edge (record 3): invalid edge weight",
		},
		{
			name: "with context",
			err: &StorageError{
				Op:      "CreateEdge",
				Entity:  "node",
				ID:      9,
				Context: "target",
				Cause:   ErrNodeNotFound,
			},
			expected: "CreateEdge node 9 (target): node not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorBuilder(t *testing.T) {
	err := NewError("ImportNodes").Record("node", 0).Field("x").Cause(ErrSchemaMismatch).Build()

	if err.Record != 1 {
		t.Errorf("Record = %d, want 1", err.Record)
	}
	if err.Field != "x" {
		t.Errorf("Field = %q, want x", err.Field)
	}
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Error("expected errors.Is to find ErrSchemaMismatch")
	}

	unset := NewError("CreateEdge").Record("edge", -1).Cause(ErrInvalidWeight).Build()
	if unset.Record != 0 {
		t.Errorf("negative index should leave record unset, got %d", unset.Record)
	}
}

func TestMalformedInputError(t *testing.T) {
	err := MalformedInputError("ImportEdges", "edge", 4, ErrInvalidWeight).Err()

	if !IsMalformed(err) {
		t.Error("expected IsMalformed to be true")
	}
	if !errors.Is(err, ErrInvalidWeight) {
		t.Error("expected specific cause to be preserved")
	}

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatal("expected *StorageError")
	}
	if se.Record != 5 {
		t.Errorf("Record = %d, want 5", se.Record)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"node", NodeNotFoundError(1), true},
		{"edge", EdgeNotFoundError(2), true},
		{"wrapped", fmt.Errorf("lookup: %w", NodeNotFoundError(3)), true},
		{"other", ErrInvalidWeight, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}
