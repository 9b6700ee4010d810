// Package override applies pattern-based partial overrides onto catalog
// entries with deterministic three-state field semantics: a field in a patch
// is either absent (no change), set (replace), or null (clear).
package override

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Field is a three-state override value. The zero Field is absent and leaves
// the target untouched; an explicit null clears the target; a value replaces
// it. Absent and null decode distinctly from both JSON and YAML: a missing
// key never reaches UnmarshalJSON/UnmarshalYAML, an explicit null does.
type Field[T any] struct {
	value T
	set   bool
	null  bool
}

// Set returns a Field carrying a replacement value.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Null returns a Field that clears the target field.
func Null[T any]() Field[T] {
	return Field[T]{null: true}
}

// IsSet reports whether the field carries a replacement value.
func (f Field[T]) IsSet() bool { return f.set }

// IsNull reports whether the field is an explicit tombstone.
func (f Field[T]) IsNull() bool { return f.null }

// IsZero reports whether the field is absent. It drives json omitzero and
// yaml omitempty so absent fields round-trip as missing keys.
func (f Field[T]) IsZero() bool { return !f.set && !f.null }

// Value returns the replacement value and whether one is present.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.set
}

var jsonNull = []byte("null")

// UnmarshalJSON decodes either an explicit null or a value.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*f = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

// MarshalJSON encodes the value, or null for both the null and absent states
// (absent fields are expected to be elided via omitzero).
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return jsonNull, nil
	}
	return json.Marshal(f.value)
}

// UnmarshalYAML decodes either an explicit null or a value.
func (f *Field[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*f = Null[T]()
		return nil
	}
	var v T
	if err := value.Decode(&v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

// MarshalYAML encodes the value, or nil for the null and absent states.
func (f Field[T]) MarshalYAML() (any, error) {
	if !f.set {
		return nil, nil
	}
	return f.value, nil
}
