package dsl

import (
	"context"
	"errors"

	skema "github.com/reoring/skema"
)

type fieldEntry struct {
	name string
	fb   *FieldBuilder
}

type objectBuilder struct {
	name        string
	title       string
	description string
	fields      []fieldEntry
	computed    []skema.Computed
	inputs      []skema.InputValidator
	models      []skema.ModelValidator
	unknown     skema.UnknownPolicy
}

type fieldStep struct {
	b  *objectBuilder
	fb *FieldBuilder
}

// Object creates a new object builder. Fields are validated and emitted in the
// order they are declared; unknown keys are stripped unless UnknownStrict is
// called.
func Object(name string) *objectBuilder {
	return &objectBuilder{name: name, unknown: skema.UnknownStrip}
}

// Field registers a field. The returned step allows attaching a default
// before continuing the chain.
func (b *objectBuilder) Field(name string, fb *FieldBuilder) *fieldStep {
	if fb == nil {
		fb = &FieldBuilder{errs: []error{errors.New("nil field builder for " + name)}}
	}
	b.fields = append(b.fields, fieldEntry{name: name, fb: fb})
	return &fieldStep{b: b, fb: fb}
}

// Default sets a default for the current field.
func (f *fieldStep) Default(v any) *objectBuilder {
	f.fb.Default(v)
	return f.b
}

// DefaultFunc sets a default factory for the current field.
func (f *fieldStep) DefaultFunc(fn func() any) *objectBuilder {
	f.fb.DefaultFunc(fn)
	return f.b
}

func (f *fieldStep) Field(name string, fb *FieldBuilder) *fieldStep { return f.b.Field(name, fb) }
func (f *fieldStep) Computed(name string, fn func(*skema.Record) any) *objectBuilder {
	return f.b.Computed(name, fn)
}
func (f *fieldStep) ComputedWith(c skema.Computed) *objectBuilder { return f.b.ComputedWith(c) }
func (f *fieldStep) Check(name string, fn func(context.Context, *skema.Record) error) *objectBuilder {
	return f.b.Check(name, fn)
}
func (f *fieldStep) Validate(vs ...skema.ModelValidator) *objectBuilder { return f.b.Validate(vs...) }
func (f *fieldStep) BeforeValidate(vs ...skema.InputValidator) *objectBuilder {
	return f.b.BeforeValidate(vs...)
}
func (f *fieldStep) UnknownStrict() *objectBuilder         { return f.b.UnknownStrict() }
func (f *fieldStep) UnknownStrip() *objectBuilder          { return f.b.UnknownStrip() }
func (f *fieldStep) Doc(title, desc string) *objectBuilder { return f.b.Doc(title, desc) }
func (f *fieldStep) Build() (*skema.Schema, error)         { return f.b.Build() }
func (f *fieldStep) MustBuild() *skema.Schema              { return f.b.MustBuild() }

// Computed declares a derived field evaluated lazily from the record.
func (b *objectBuilder) Computed(name string, fn func(*skema.Record) any) *objectBuilder {
	return b.ComputedWith(skema.Computed{Name: name, Fn: fn})
}

// ComputedWith declares a derived field with documentation.
func (b *objectBuilder) ComputedWith(c skema.Computed) *objectBuilder {
	b.computed = append(b.computed, c)
	return b
}

// Check adds a model-level predicate run after all fields passed.
func (b *objectBuilder) Check(name string, fn func(context.Context, *skema.Record) error) *objectBuilder {
	return b.Validate(skema.ModelCheck(name, fn))
}

// Validate adds model validators (see the rules package for ready-made ones).
func (b *objectBuilder) Validate(vs ...skema.ModelValidator) *objectBuilder {
	b.models = append(b.models, vs...)
	return b
}

// BeforeValidate adds validators over the raw input mapping.
func (b *objectBuilder) BeforeValidate(vs ...skema.InputValidator) *objectBuilder {
	b.inputs = append(b.inputs, vs...)
	return b
}

// UnknownStrict sets unknown policy to Strict.
func (b *objectBuilder) UnknownStrict() *objectBuilder {
	b.unknown = skema.UnknownStrict
	return b
}

// UnknownStrip sets unknown policy to Strip.
func (b *objectBuilder) UnknownStrip() *objectBuilder {
	b.unknown = skema.UnknownStrip
	return b
}

// Doc sets the schema title and description.
func (b *objectBuilder) Doc(title, desc string) *objectBuilder {
	b.title, b.description = title, desc
	return b
}

// Build validates the declaration and returns a Schema.
func (b *objectBuilder) Build() (*skema.Schema, error) {
	var errs []error
	fields := make([]skema.Field, 0, len(b.fields))
	for _, e := range b.fields {
		errs = append(errs, e.fb.errs...)
		fields = append(fields, e.fb.Descriptor(e.name))
	}
	s, err := skema.NewSchema(b.name, fields,
		skema.WithUnknown(b.unknown),
		skema.WithDoc(b.title, b.description),
		skema.WithComputed(b.computed...),
		skema.WithInputValidators(b.inputs...),
		skema.WithModelValidators(b.models...),
	)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *objectBuilder) MustBuild() *skema.Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
