package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueNumeric
	ValueText
)

// Value is a weakly typed backend field that arrives either as a number or
// as a pre-formatted string (price, area, age, walk time, id).
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Numeric returns a numeric Value.
func Numeric(f float64) Value {
	return Value{kind: ValueNumeric, num: f}
}

// Text returns a pre-formatted Value. An empty string is treated as absent.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: ValueText, text: s}
}

// Kind reports which representation the value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether the backend sent nothing usable.
func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Number returns the numeric payload and whether the value is numeric.
func (v Value) Number() (float64, bool) {
	return v.num, v.kind == ValueNumeric
}

// String renders the raw value without units.
func (v Value) String() string {
	switch v.kind {
	case ValueNumeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case ValueText:
		return v.text
	default:
		return ""
	}
}

// UnmarshalJSON accepts numbers, strings and null. Any other JSON is kept
// verbatim as text so one odd field never fails a whole reply.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Value{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			*v = Text(string(data))
			return nil
		}
		*v = Numeric(f)
	}
	return nil
}

// MarshalJSON writes the value back in its original representation.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumeric:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case ValueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}
