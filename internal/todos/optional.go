package todos

import (
	"bytes"
	"encoding/json"
)

// Optional tracks presence and value of a JSON field:
//   - Present=false: field absent from JSON
//   - Present=true, Value=nil: field is JSON null
//   - Present=true, Value!=nil: field has a value
type Optional[T any] struct {
	Present bool
	Value   *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns an Optional that was supplied as JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
// When this method is called, the field was present in the JSON.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true

	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes the value, or null when absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Get returns the value and whether a non-null value was supplied.
func (o Optional[T]) Get() (T, bool) {
	if !o.Present || o.Value == nil {
		var zero T
		return zero, false
	}
	return *o.Value, true
}
