package storage

import "fmt"

// schema records the single ValueType allowed for each attribute key of one
// element class (nodes or edges).
type schema map[string]ValueType

// check reports a mismatch between attrs and the schema, taking pending
// declarations from the same batch into account.
func (s schema) check(attrs map[string]Value, pending schema) (string, error) {
	for key, val := range attrs {
		want, ok := s[key]
		if !ok {
			want, ok = pending[key]
		}
		if !ok {
			pending[key] = val.Type
			continue
		}
		if want != val.Type {
			return key, fmt.Errorf("%w: declared %s, got %s", ErrSchemaMismatch, want, val.Type)
		}
	}
	return "", nil
}

func (s schema) merge(pending schema) {
	for key, t := range pending {
		s[key] = t
	}
}

// Declared returns a copy of the declared attribute types
func (s schema) declared() map[string]ValueType {
	out := make(map[string]ValueType, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
