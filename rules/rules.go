package rules

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"

	skema "github.com/reoring/skema"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op Op) String() string {
	switch op {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

// Check is a cross-field rule over a validated record. Issue paths are
// relative to the record.
type Check func(ctx context.Context, r *skema.Record) skema.Issues

// Conditional composes conditional execution of checks.
type Conditional struct {
	field string
	op    Op
	want  any
	all   []Conditional // composite AND
	any   []Conditional // composite OR
}

// If builds a conditional that compares the value at a dotted field path
// (e.g. "age" or "address.pin") with want. A missing or null value never
// satisfies the condition.
func If(field string, op Op, want any) Conditional {
	return Conditional{field: field, op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	conds := append([]Conditional{c}, others...)
	return IfAll(conds...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	conds := append([]Conditional{c}, others...)
	return IfAny(conds...)
}

// Holds evaluates the condition against r.
func (c Conditional) Holds(r *skema.Record) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(r) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(r) {
				return true
			}
		}
		return false
	}
	cur, ok := r.Lookup(c.field)
	if !ok || cur == nil {
		return false
	}
	return compare(cur, c.op, c.want)
}

func (c Conditional) String() string {
	join := func(cs []Conditional, sep string) string {
		parts := make([]string, len(cs))
		for i, it := range cs {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	switch {
	case len(c.all) > 0:
		return join(c.all, " && ")
	case len(c.any) > 0:
		return join(c.any, " || ")
	}
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.want)
}

// Then returns a model validator that runs checks when the condition holds.
// The validator is named after the condition.
func (c Conditional) Then(checks ...Check) skema.ModelValidator {
	inner := And(checks...)
	return skema.ModelValidator{Name: "if " + c.String(), Fn: func(ctx context.Context, r *skema.Record) (*skema.Record, error) {
		if !c.Holds(r) {
			return r, nil
		}
		if iss := inner(ctx, r); len(iss) > 0 {
			return nil, iss
		}
		return r, nil
	}}
}

// Model wraps checks as an unconditional model validator.
func Model(name string, checks ...Check) skema.ModelValidator {
	inner := And(checks...)
	return skema.ModelValidator{Name: name, Fn: func(ctx context.Context, r *skema.Record) (*skema.Record, error) {
		if iss := inner(ctx, r); len(iss) > 0 {
			return nil, iss
		}
		return r, nil
	}}
}

// RequireKey ensures the string map at field contains key. Keys are compared
// after trimming spaces and Unicode case folding, so "Emergency " matches
// "emergency". A missing field is left to the field's own required check.
func RequireKey(field, key string) Check {
	return func(_ context.Context, r *skema.Record) skema.Issues {
		v, ok := r.Lookup(field)
		if !ok || v == nil {
			return nil
		}
		m, ok := v.(map[string]string)
		if !ok {
			return nil
		}
		fold := cases.Fold()
		want := fold.String(strings.TrimSpace(key))
		for k := range m {
			if fold.String(strings.TrimSpace(k)) == want {
				return nil
			}
		}
		return skema.Issues{skema.ParsePath(field).Issue(skema.CodeCustom,
			fmt.Sprintf("%s must contain %q", field, key), "key", key)}
	}
}

// AtLeastOne ensures the list or map at field has at least 1 element.
func AtLeastOne(field string) Check {
	return func(_ context.Context, r *skema.Record) skema.Issues {
		v, ok := r.Lookup(field)
		if !ok || v == nil {
			return nil
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map:
			if rv.Len() == 0 {
				return skema.Issues{skema.ParsePath(field).Issue(skema.CodeTooShort,
					"at least 1 item is required", "min_length", 1, "actual_length", 0)}
			}
		default:
			// Not a collection; do not issue error here to avoid noise
		}
		return nil
	}
}

// UniqueItems ensures the string list at field holds no duplicates. Each
// repeated element is reported at its index.
func UniqueItems(field string) Check {
	return func(_ context.Context, r *skema.Record) skema.Issues {
		v, _ := r.Lookup(field)
		items, ok := v.([]string)
		if !ok {
			return nil
		}
		base := skema.ParsePath(field)
		seen := make(map[string]int, len(items))
		var out skema.Issues
		for i, it := range items {
			if j, dup := seen[it]; dup {
				out = append(out, base.Index(i).Issue(skema.CodeCustom, "duplicate value",
					"first", j, "dup", i, "key", it))
				continue
			}
			seen[it] = i
		}
		return out
	}
}

// Message replaces the message of every issue c reports.
func Message(msg string, c Check) Check {
	return func(ctx context.Context, r *skema.Record) skema.Issues {
		iss := c(ctx, r)
		for i := range iss {
			iss[i].Message = msg
		}
		return iss
	}
}

// ------- helpers -------

func compare(cur any, op Op, want any) bool {
	a, aok := number(cur)
	b, bok := number(want)
	if aok && bok {
		switch op {
		case Eq:
			return a == b
		case Ne:
			return a != b
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
		return false
	}
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want)
	case Lt, Le, Gt, Ge:
		x, xok := cur.(string)
		y, yok := want.(string)
		if !xok || !yok {
			return false
		}
		c := strings.Compare(x, y)
		return (op == Lt && c < 0) || (op == Le && c <= 0) || (op == Gt && c > 0) || (op == Ge && c >= 0)
	default:
		return false
	}
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

// ---------- Check combinators ----------

// And executes all checks and concatenates Issues. Under fail-fast it stops
// at the first failing check.
func And(checks ...Check) Check {
	return func(ctx context.Context, r *skema.Record) skema.Issues {
		var out skema.Issues
		for _, c := range checks {
			if c == nil {
				continue
			}
			if iss := c(ctx, r); len(iss) > 0 {
				out = append(out, iss...)
				if skema.IsFailFast(ctx) {
					return out
				}
			}
		}
		return out
	}
}

// Or succeeds if any check returns no Issues. When all fail it returns the
// branch with the fewest issues.
func Or(checks ...Check) Check {
	return func(ctx context.Context, r *skema.Record) skema.Issues {
		var best skema.Issues
		bestSet := false
		for _, c := range checks {
			if c == nil {
				continue
			}
			iss := c(ctx, r)
			if len(iss) == 0 {
				return nil
			}
			if !bestSet || len(iss) < len(best) {
				best = iss
				bestSet = true
			}
		}
		if bestSet {
			return best
		}
		return nil
	}
}
