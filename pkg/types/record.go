package types

import "sort"

// Record is one schema-less archive event. Field sets vary between records of
// the same category, so nothing about its shape is assumed.
type Record map[string]Value

func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// Fields returns the field names in lexical order.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for field := range r {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Clone returns a shallow copy; Values are immutable so this is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Equal reports whether both records carry the same fields and values.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	for k, v := range r {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
