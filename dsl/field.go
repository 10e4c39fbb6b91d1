package dsl

import (
	"context"

	skema "github.com/reoring/skema"
)

// FieldBuilder declares one field: its type, constraints, default, metadata
// and validators. Methods mutate and return the receiver for chaining.
type FieldBuilder struct {
	f    skema.Field
	errs []error
}

func newField(t skema.FieldType) *FieldBuilder { return &FieldBuilder{f: skema.Field{Type: t}} }

// String declares a string field. Input must already be a string.
func String() *FieldBuilder { return newField(skema.TypeString) }

// Int declares an integer field stored as int64. Numeric strings are accepted
// unless Strict is set.
func Int() *FieldBuilder { return newField(skema.TypeInt) }

// Float declares a float field stored as float64.
func Float() *FieldBuilder { return newField(skema.TypeFloat) }

// Bool declares a boolean field.
func Bool() *FieldBuilder { return newField(skema.TypeBool) }

// StringList declares a sequence of strings.
func StringList() *FieldBuilder { return newField(skema.TypeStringList) }

// StringMap declares a string-to-string mapping.
func StringMap() *FieldBuilder { return newField(skema.TypeStringMap) }

// Nested declares a nested record of schema s.
func Nested(s *skema.Schema) *FieldBuilder {
	fb := newField(skema.TypeObject)
	fb.f.Schema = s
	return fb
}

// Constraints

func (b *FieldBuilder) constrain(c skema.Constraint) *FieldBuilder {
	b.f.Constraints = append(b.f.Constraints, c)
	return b
}

// MinLen bounds rune count (strings) or element count (lists, maps) from below.
func (b *FieldBuilder) MinLen(n int) *FieldBuilder { return b.constrain(skema.MinLen(n)) }

// MaxLen bounds rune count (strings) or element count (lists, maps) from above.
func (b *FieldBuilder) MaxLen(n int) *FieldBuilder { return b.constrain(skema.MaxLen(n)) }

func (b *FieldBuilder) Gt(x float64) *FieldBuilder { return b.constrain(skema.Gt(x)) }
func (b *FieldBuilder) Ge(x float64) *FieldBuilder { return b.constrain(skema.Ge(x)) }
func (b *FieldBuilder) Lt(x float64) *FieldBuilder { return b.constrain(skema.Lt(x)) }
func (b *FieldBuilder) Le(x float64) *FieldBuilder { return b.constrain(skema.Le(x)) }

// Strict disables lax coercion: numeric fields reject strings.
func (b *FieldBuilder) Strict() *FieldBuilder { return b.constrain(skema.Strict()) }

// OneOf restricts the value to the listed values.
func (b *FieldBuilder) OneOf(vals ...any) *FieldBuilder { return b.constrain(skema.OneOf(vals...)) }

// Email requires an RFC 5322 address with a dotted domain.
func (b *FieldBuilder) Email() *FieldBuilder { return b.constrain(skema.FormatOf(skema.FormatEmail)) }

// URL requires an absolute URL with scheme and host.
func (b *FieldBuilder) URL() *FieldBuilder { return b.constrain(skema.FormatOf(skema.FormatURL)) }

// Pattern requires the string to match the RE2 expression. Compile errors
// surface from Build.
func (b *FieldBuilder) Pattern(expr string) *FieldBuilder {
	c, err := skema.Pattern(expr)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.constrain(c)
}

// Presence

// Default makes the field optional, filling v when absent.
func (b *FieldBuilder) Default(v any) *FieldBuilder {
	b.f.Default, b.f.HasDefault = v, true
	return b
}

// DefaultFunc makes the field optional, calling fn for a fresh value when absent.
func (b *FieldBuilder) DefaultFunc(fn func() any) *FieldBuilder {
	b.f.DefaultFactory = fn
	return b
}

// Nullable accepts null and stores nil. Combine with Default(nil) for an
// optional field that defaults to null.
func (b *FieldBuilder) Nullable() *FieldBuilder {
	b.f.Nullable = true
	return b
}

// Metadata

func (b *FieldBuilder) Title(s string) *FieldBuilder {
	b.f.Title = s
	return b
}

func (b *FieldBuilder) Description(s string) *FieldBuilder {
	b.f.Description = s
	return b
}

func (b *FieldBuilder) Examples(vals ...any) *FieldBuilder {
	b.f.Examples = append(b.f.Examples, vals...)
	return b
}

// Validators

// Validate appends prepared validators such as skema.After or skema.Check.
func (b *FieldBuilder) Validate(vs ...skema.FieldValidator) *FieldBuilder {
	b.f.Validators = append(b.f.Validators, vs...)
	return b
}

// Before registers a validator over the raw input value.
func (b *FieldBuilder) Before(name string, fn func(ctx context.Context, v any) (any, error)) *FieldBuilder {
	return b.Validate(skema.FieldValidator{Name: name, Mode: skema.ModeBefore, Fn: fn})
}

// After registers a validator over the coerced value.
func (b *FieldBuilder) After(name string, fn func(ctx context.Context, v any) (any, error)) *FieldBuilder {
	return b.Validate(skema.FieldValidator{Name: name, Mode: skema.ModeAfter, Fn: fn})
}

// Descriptor returns the field built so far under the given name.
func (b *FieldBuilder) Descriptor(name string) skema.Field {
	f := b.f
	f.Name = name
	return f
}
