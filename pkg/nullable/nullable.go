// Package nullable holds JSON field types that distinguish "absent" from
// "explicit null" in partial updates.
package nullable

import (
	"bytes"
	"encoding/json"
)

// ID is a tri-state identifier: absent (Set=false), null (Set=true,
// Valid=false) or a value.
type ID struct {
	Set   bool
	Valid bool
	Value uint
}

// Of returns a set, non-null ID.
func Of(v uint) ID { return ID{Set: true, Valid: true, Value: v} }

// Null returns a set, null ID.
func Null() ID { return ID{Set: true} }

func (n *ID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Valid = false
		n.Value = 0
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n ID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns the value as a pointer, nil when null or absent.
func (n ID) Ptr() *uint {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
