package skema

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Record is an immutable, validated value of a Schema. Accessors return copies
// of container values, so callers cannot mutate a Record through them.
type Record struct {
	schema   *Schema
	values   []any
	presence []Presence
	computed []computedSlot
}

type computedSlot struct {
	once sync.Once
	v    any
}

func newRecord(s *Schema) *Record {
	return &Record{
		schema:   s,
		values:   make([]any, len(s.fields)),
		presence: make([]Presence, len(s.fields)),
		computed: make([]computedSlot, len(s.computed)),
	}
}

// Schema returns the schema the record was validated against.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns a stored or computed field value. Computed fields are evaluated
// on first access and cached.
func (r *Record) Get(name string) (any, bool) {
	if i, ok := r.schema.index[name]; ok {
		return copyValue(r.values[i]), true
	}
	if i, ok := r.schema.compIndex[name]; ok {
		return r.computedValue(i), true
	}
	return nil, false
}

func (r *Record) computedValue(i int) any {
	slot := &r.computed[i]
	slot.once.Do(func() { slot.v = r.schema.computed[i].Fn(r) })
	return copyValue(slot.v)
}

// Lookup resolves a dotted path (see Path) through nested records, e.g. "address.city".
// The final segment may also be a key of a string map field.
func (r *Record) Lookup(path string) (any, bool) {
	parts := ParsePath(path).parts
	cur := r
	for i, name := range parts {
		v, ok := cur.Get(name)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		switch x := v.(type) {
		case *Record:
			if x == nil {
				return nil, false
			}
			cur = x
		case map[string]string:
			if i != len(parts)-2 {
				return nil, false
			}
			s, ok := x[parts[i+1]]
			return s, ok
		case []string:
			if i != len(parts)-2 {
				return nil, false
			}
			n, err := strconv.Atoi(parts[i+1])
			if err != nil || n < 0 || n >= len(x) {
				return nil, false
			}
			return x[n], true
		default:
			return nil, false
		}
	}
	return nil, false
}

// GetString returns a string field, or "" when absent or of another type.
func (r *Record) GetString(name string) string {
	v, _ := r.Get(name)
	s, _ := v.(string)
	return s
}

// GetInt returns an int field, or 0.
func (r *Record) GetInt(name string) int64 {
	v, _ := r.Get(name)
	n, _ := v.(int64)
	return n
}

// GetFloat returns a float field, or 0. Int fields are widened.
func (r *Record) GetFloat(name string) float64 {
	v, _ := r.Get(name)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

// GetBool returns a bool field, or false.
func (r *Record) GetBool(name string) bool {
	v, _ := r.Get(name)
	b, _ := v.(bool)
	return b
}

// GetStrings returns a copy of a string-sequence field, or nil.
func (r *Record) GetStrings(name string) []string {
	v, _ := r.Get(name)
	l, _ := v.([]string)
	return l
}

// GetStringMap returns a copy of a string map field, or nil.
func (r *Record) GetStringMap(name string) map[string]string {
	v, _ := r.Get(name)
	m, _ := v.(map[string]string)
	return m
}

// GetRecord returns a nested record, or nil.
func (r *Record) GetRecord(name string) *Record {
	v, _ := r.Get(name)
	n, _ := v.(*Record)
	return n
}

// IsSet reports whether the caller supplied the field explicitly.
func (r *Record) IsSet(name string) bool {
	i, ok := r.schema.index[name]
	return ok && r.presence[i]&PresenceSeen != 0
}

// FieldsSet lists explicitly supplied fields in declaration order.
func (r *Record) FieldsSet() []string {
	var out []string
	for i, f := range r.schema.fields {
		if r.presence[i]&PresenceSeen != 0 {
			out = append(out, f.Name)
		}
	}
	return out
}

// With returns a copy of r with one stored field replaced. The new value goes
// through the field's full pipeline and is marked as explicitly set. Model
// validators are not re-run, which lets them call With on the record they are
// validating.
func (r *Record) With(ctx context.Context, name string, v any) (*Record, error) {
	i, ok := r.schema.index[name]
	if !ok {
		return nil, Issues{Root().Field(name).Issue(CodeUnknownKey, "no such field")}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	f := &r.schema.fields[i]
	cv, iss := checkValue(ctx, f, Root().Field(name), v)
	if len(iss) > 0 {
		return nil, iss
	}
	out := newRecord(r.schema)
	copy(out.values, r.values)
	copy(out.presence, r.presence)
	out.values[i] = cv
	out.presence[i] = PresenceSeen
	if v == nil {
		out.presence[i] |= PresenceWasNull
	}
	return out, nil
}

// Equal reports whether both records share a schema and hold equal stored
// values. Presence flags and computed caches are not compared.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.schema != o.schema {
		return false
	}
	for i := range r.values {
		a, b := r.values[i], o.values[i]
		if ra, ok := a.(*Record); ok {
			rb, ok := b.(*Record)
			if !ok || !ra.Equal(rb) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(a, b) {
			return false
		}
	}
	return true
}

// String renders the record as Name{field: value, ...} with computed fields
// last.
func (r *Record) String() string {
	b := &strings.Builder{}
	b.WriteString(r.schema.name)
	b.WriteByte('{')
	n := 0
	sep := func() {
		if n > 0 {
			b.WriteString(", ")
		}
		n++
	}
	for i, f := range r.schema.fields {
		sep()
		fmt.Fprintf(b, "%s: %s", f.Name, formatValue(r.values[i]))
	}
	for i, c := range r.schema.computed {
		sep()
		fmt.Fprintf(b, "%s: %s", c.Name, formatValue(r.computedValue(i)))
	}
	b.WriteByte('}')
	return b.String()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case *Record:
		return x.String()
	}
	return fmt.Sprint(v)
}
