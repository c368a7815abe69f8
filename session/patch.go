package session

import (
	"bytes"
	"encoding/json"
)

// Patch is an optional field of a partial update.
// The zero value is absent and keeps the previous value.
type Patch[T any] struct {
	present bool
	value   *T
}

// Set returns a patch replacing the field with v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{present: true, value: &v}
}

// Clear returns a patch resetting the field to null.
func Clear[T any]() Patch[T] {
	return Patch[T]{present: true}
}

// Present returns true if the patch carries a value or a reset.
func (p Patch[T]) Present() bool { return p.present }

// IsClear returns true if the patch resets the field.
func (p Patch[T]) IsClear() bool { return p.present && p.value == nil }

// Apply returns the field value after the patch, given the previous one.
func (p Patch[T]) Apply(prev *T) *T {
	if !p.present {
		return prev
	}
	if p.value == nil {
		return nil
	}
	v := *p.value
	return &v
}

// MarshalJSON implements json.Marshaler. Absent and cleared patches both encode as null.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.value)
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key is present.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.value = &v
	return nil
}
