package types

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON patch field that distinguishes three states: absent
// from the request body (Set=false), present but null (Set=true,
// Valid=false), and present with a value (Set=true, Valid=true). Absent
// fields are never written to storage; null fields clear the column.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// Some is a convenience constructor for tests and internal callers.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present-but-null field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Assign writes the field into a GORM column map when it is present.
// A null field maps to a nil value, which GORM renders as SQL NULL.
func (o Optional[T]) Assign(columns map[string]interface{}, name string) {
	if !o.Set {
		return
	}
	if !o.Valid {
		columns[name] = nil
		return
	}
	columns[name] = o.Value
}
