package care

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

type shape uint8

const (
	shapeAbsent shape = iota
	shapeText
	shapeList
)

// Value is one care attribute as returned by the care-facts lookup: absent,
// a single string, or an ordered list of strings. The zero Value is absent.
type Value struct {
	shape shape
	text  string
	list  []string
}

// Absent returns a Value with no content.
func Absent() Value { return Value{} }

// Text returns a single-string Value.
func Text(s string) Value { return Value{shape: shapeText, text: s} }

// List returns a list Value. The items are copied.
func List(items ...string) Value {
	return Value{shape: shapeList, list: slices.Clone(items)}
}

// IsAbsent reports whether the value carries nothing.
func (v Value) IsAbsent() bool { return v.shape == shapeAbsent }

// Items returns a copy of the list items, or nil for non-list values.
func (v Value) Items() []string {
	if v.shape != shapeList {
		return nil
	}
	return slices.Clone(v.list)
}

// String returns the raw text; list items are joined with ", ".
func (v Value) String() string {
	switch v.shape {
	case shapeText:
		return v.text
	case shapeList:
		return strings.Join(v.list, ", ")
	}
	return ""
}

// UnmarshalJSON accepts null, a string, or an array. Non-string array members
// are dropped. Other scalars keep their literal text; objects decode as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
				continue
			}
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				items = append(items, s)
			}
		}
		*v = Value{shape: shapeList, list: items}
	case '{':
		*v = Value{}
	default:
		*v = Text(string(data))
	}
	return nil
}

// MarshalJSON writes the value back in the shape it was read.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.shape {
	case shapeText:
		return json.Marshal(v.text)
	case shapeList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return []byte("null"), nil
}
