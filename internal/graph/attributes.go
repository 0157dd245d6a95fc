package graph

// Attributes is an ordered multimap from attribute name to values.
//
// Values for a name keep insertion order and may repeat. Names keep the order
// in which they were first appended. Appending never removes earlier values.
type Attributes struct {
	names  []string
	values map[string][]Value
}

// NewAttributes returns an empty multimap.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string][]Value)}
}

// Append adds v to the values recorded for name.
func (a *Attributes) Append(name string, v Value) {
	if a.values == nil {
		a.values = make(map[string][]Value)
	}
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = append(a.values[name], v)
}

// All returns every value recorded for name, oldest first.
// The returned slice is a copy.
func (a *Attributes) All(name string) []Value {
	vals := a.values[name]
	if len(vals) == 0 {
		return nil
	}
	out := make([]Value, len(vals))
	copy(out, vals)
	return out
}

// First returns the oldest value recorded for name.
func (a *Attributes) First(name string) (Value, bool) {
	vals := a.values[name]
	if len(vals) == 0 {
		return Value{}, false
	}
	return vals[0], true
}

// Keys returns attribute names in first-insertion order.
func (a *Attributes) Keys() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Len returns the number of distinct names.
func (a *Attributes) Len() int {
	return len(a.names)
}

// Each calls fn for every (name, value) pair in insertion order of names,
// then values.
func (a *Attributes) Each(fn func(name string, v Value)) {
	for _, name := range a.names {
		for _, v := range a.values[name] {
			fn(name, v)
		}
	}
}

// Clone returns a deep copy.
func (a *Attributes) Clone() *Attributes {
	out := NewAttributes()
	a.Each(out.Append)
	return out
}
