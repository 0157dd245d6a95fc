package graph

import "strconv"

// ValueKind tags which slot of a Value is set.
type ValueKind uint8

const (
	KindText ValueKind = iota
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single attribute value: either text or a boolean.
// The zero Value is the empty text value.
type Value struct {
	kind ValueKind
	text string
	b    bool
}

// Text returns a text value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind reports which slot is set.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsBool reports whether v holds a boolean.
func (v Value) IsBool() bool {
	return v.kind == KindBool
}

// TextValue returns the text slot. It is empty for boolean values.
func (v Value) TextValue() string {
	return v.text
}

// BoolValue returns the boolean slot. It is false for text values.
func (v Value) BoolValue() bool {
	return v.b
}

// Float parses a text value as a float64.
// Boolean values never parse.
func (v Value) Float() (float64, bool) {
	if v.kind != KindText {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders the value the way it appears in an edge list.
func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return v.text
}
