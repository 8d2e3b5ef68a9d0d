// Package optional models request fields whose presence matters: a PATCH body
// distinguishes "absent" (keep the stored value), "null" and a concrete value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is a JSON field that remembers whether it was present in the payload.
type Value[T any] struct {
	Set  bool
	Null bool
	V    T
}

// Of returns a present, non-null value.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, V: v}
}

// Null returns a present value that was explicitly null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.V = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.V)
}

// MarshalJSON writes null for absent or null values.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

// Ptr returns nil for absent or null values, otherwise a pointer to a copy.
func (o Value[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.V
	return &v
}

// Or returns the carried value, or fallback when absent or null.
func (o Value[T]) Or(fallback T) T {
	if !o.Set || o.Null {
		return fallback
	}
	return o.V
}
