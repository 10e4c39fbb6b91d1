package skema

import (
	"context"
	"fmt"
)

// Field describes one stored field of a Schema. Schemas copy the Field they
// are given, so mutating it afterwards has no effect.
type Field struct {
	Name string
	Type FieldType
	// Schema is the nested schema of a TypeObject field.
	Schema      *Schema
	Constraints []Constraint

	// Default is used when the field is absent and HasDefault is set. It is
	// coerced and checked once at build time and copied into every Record.
	Default    any
	HasDefault bool
	// DefaultFactory produces a fresh default per Record. Its result is
	// coerced and checked at validation time.
	DefaultFactory func() any

	// Nullable accepts nil input (and nil defaults) and stores nil.
	Nullable bool

	Title       string
	Description string
	Examples    []any

	// Validators run in registration order within their Mode.
	Validators []FieldValidator
}

// Required reports whether the field must be present in the input.
func (f Field) Required() bool { return !f.HasDefault && f.DefaultFactory == nil }

// IsStrict reports whether the field carries the strict constraint.
func (f Field) IsStrict() bool {
	for _, c := range f.Constraints {
		if c.Kind == ConstraintStrict {
			return true
		}
	}
	return false
}

func (f Field) clone() Field {
	f.Constraints = append([]Constraint(nil), f.Constraints...)
	f.Examples = append([]any(nil), f.Examples...)
	f.Validators = append([]FieldValidator(nil), f.Validators...)
	return f
}

// FieldValidator is a custom per-field check or transform. Before validators
// see the raw input value; After validators see the coerced value and must
// return a value of the stored type. Returning an error rejects the field.
type FieldValidator struct {
	Name string
	Mode Mode
	Fn   func(ctx context.Context, v any) (any, error)
}

// Before wraps fn as a validator over the raw input value.
func Before(name string, fn func(v any) (any, error)) FieldValidator {
	return FieldValidator{Name: name, Mode: ModeBefore, Fn: func(_ context.Context, v any) (any, error) { return fn(v) }}
}

// After wraps a typed transform over the coerced value. T must be the stored
// type of the field (string, int64, float64, bool, []string,
// map[string]string or *Record).
func After[T any](name string, fn func(v T) (T, error)) FieldValidator {
	return FieldValidator{Name: name, Mode: ModeAfter, Fn: func(_ context.Context, v any) (any, error) {
		tv, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("validator %s expects %T, got %T", name, zero, v)
		}
		return fn(tv)
	}}
}

// Check wraps a typed predicate over the coerced value that leaves it unchanged.
func Check[T any](name string, fn func(v T) error) FieldValidator {
	return After(name, func(v T) (T, error) { return v, fn(v) })
}

// ModelValidator is a cross-field check over the assembled Record. It returns
// the Record unchanged, a transformed Record of the same schema (see
// Record.With), or an error to reject it.
type ModelValidator struct {
	Name string
	Fn   func(ctx context.Context, r *Record) (*Record, error)
}

// ModelCheck wraps a predicate as a ModelValidator that never transforms.
func ModelCheck(name string, fn func(ctx context.Context, r *Record) error) ModelValidator {
	return ModelValidator{Name: name, Fn: func(ctx context.Context, r *Record) (*Record, error) {
		if err := fn(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	}}
}

// InputValidator runs before any field is processed and may rewrite the raw
// input mapping. The mapping it receives is a shallow copy owned by the call.
type InputValidator struct {
	Name string
	Fn   func(ctx context.Context, in map[string]any) (map[string]any, error)
}

// Computed declares a derived field. Fn is evaluated at most once per Record,
// on first access, and must not retain the Record.
type Computed struct {
	Name        string
	Description string
	Fn          func(r *Record) any
}
