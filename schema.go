package skema

import (
	"context"
	"errors"
	"strings"
)

// Schema is an ordered, immutable set of field descriptors plus derived fields
// and model validators. Build one with NewSchema or the dsl package; a Schema
// is safe for concurrent use.
type Schema struct {
	name        string
	title       string
	description string
	fields      []Field
	index       map[string]int
	computed    []Computed
	compIndex   map[string]int
	inputs      []InputValidator
	models      []ModelValidator
	unknown     UnknownPolicy
}

// SchemaOption configures NewSchema.
type SchemaOption func(*Schema)

// WithUnknown sets the unknown-key policy (UnknownStrip by default).
func WithUnknown(p UnknownPolicy) SchemaOption { return func(s *Schema) { s.unknown = p } }

// WithComputed declares derived fields, emitted after stored fields.
func WithComputed(cs ...Computed) SchemaOption {
	return func(s *Schema) { s.computed = append(s.computed, cs...) }
}

// WithModelValidators appends after-mode model validators.
func WithModelValidators(vs ...ModelValidator) SchemaOption {
	return func(s *Schema) { s.models = append(s.models, vs...) }
}

// WithInputValidators appends before-mode model validators.
func WithInputValidators(vs ...InputValidator) SchemaOption {
	return func(s *Schema) { s.inputs = append(s.inputs, vs...) }
}

// WithDoc sets the title and description used by JSONSchema.
func WithDoc(title, description string) SchemaOption {
	return func(s *Schema) { s.title, s.description = title, description }
}

// NewSchema validates the declaration and returns an immutable Schema. All
// declaration problems are reported together, each wrapping ErrInvalidSchema.
func NewSchema(name string, fields []Field, opts ...SchemaOption) (*Schema, error) {
	s := &Schema{name: name}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	var errs []error
	if strings.TrimSpace(name) == "" {
		errs = append(errs, schemaErrorf("(unnamed)", "", "schema name is required"))
	}

	s.index = make(map[string]int, len(fields))
	s.fields = make([]Field, 0, len(fields))
	for _, f := range fields {
		f = f.clone()
		if err := checkName(f.Name); err != nil {
			errs = append(errs, schemaErrorf(name, f.Name, "%v", err))
			continue
		}
		if _, dup := s.index[f.Name]; dup {
			errs = append(errs, schemaErrorf(name, f.Name, "duplicate field name"))
			continue
		}
		if fe := s.checkField(&f); len(fe) > 0 {
			errs = append(errs, fe...)
			continue
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}

	s.compIndex = make(map[string]int, len(s.computed))
	for i, c := range s.computed {
		if err := checkName(c.Name); err != nil {
			errs = append(errs, schemaErrorf(name, c.Name, "%v", err))
			continue
		}
		if _, clash := s.index[c.Name]; clash {
			errs = append(errs, schemaErrorf(name, c.Name, "computed field shadows a stored field"))
			continue
		}
		if _, dup := s.compIndex[c.Name]; dup {
			errs = append(errs, schemaErrorf(name, c.Name, "duplicate computed field"))
			continue
		}
		if c.Fn == nil {
			errs = append(errs, schemaErrorf(name, c.Name, "computed field has no function"))
			continue
		}
		s.compIndex[c.Name] = i
	}
	for _, v := range s.models {
		if v.Fn == nil {
			errs = append(errs, schemaErrorf(name, "", "model validator %q has no function", v.Name))
		}
	}
	for _, v := range s.inputs {
		if v.Fn == nil {
			errs = append(errs, schemaErrorf(name, "", "input validator %q has no function", v.Name))
		}
	}
	if s.unknown != UnknownStrip && s.unknown != UnknownStrict {
		errs = append(errs, schemaErrorf(name, "", "unsupported unknown-key policy %d", s.unknown))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func checkName(n string) error {
	switch {
	case n == "":
		return errors.New("field name is required")
	case strings.ContainsAny(n, ". \t\n"):
		return errors.New("field name must not contain dots or spaces")
	}
	return nil
}

// checkField validates constraints and defaults, normalizing enum values and
// the static default to the stored type.
func (s *Schema) checkField(f *Field) []error {
	var errs []error
	fail := func(format string, a ...any) { errs = append(errs, schemaErrorf(s.name, f.Name, format, a...)) }

	if f.Type < TypeString || f.Type > TypeObject {
		fail("unsupported field type %d", f.Type)
		return errs
	}
	if (f.Type == TypeObject) != (f.Schema != nil) {
		fail("nested schema must be set exactly for object fields")
		return errs
	}
	minLen, maxLen := -1, -1
	for i, c := range f.Constraints {
		if !c.appliesTo(f.Type) {
			fail("constraint %s does not apply to %s", c.Kind, f.Type)
			continue
		}
		switch c.Kind {
		case ConstraintMinLen, ConstraintMaxLen:
			if c.Len < 0 {
				fail("%s must not be negative", c.Kind)
			}
			if c.Kind == ConstraintMinLen {
				minLen = c.Len
			} else {
				maxLen = c.Len
			}
		case ConstraintPattern:
			if c.Pattern == nil {
				fail("pattern constraint without expression")
			}
		case ConstraintFormat:
			if c.Format != FormatEmail && c.Format != FormatURL {
				fail("unsupported format %q", c.Format)
			}
		case ConstraintEnum:
			if len(c.Values) == 0 {
				fail("enum constraint without values")
				continue
			}
			norm := make([]any, len(c.Values))
			for j, v := range c.Values {
				cv, err := coerceScalar(f.Type, v, false)
				if err != nil {
					fail("enum value %v: %v", v, err)
					break
				}
				norm[j] = cv
			}
			f.Constraints[i].Values = norm
		}
	}
	if minLen >= 0 && maxLen >= 0 && minLen > maxLen {
		fail("min_length %d exceeds max_length %d", minLen, maxLen)
	}
	for _, v := range f.Validators {
		if v.Fn == nil {
			fail("validator %q has no function", v.Name)
		}
	}
	if f.HasDefault && f.DefaultFactory != nil {
		fail("default and default factory are mutually exclusive")
	}
	if len(errs) > 0 || !f.HasDefault {
		return errs
	}
	if f.Default == nil {
		if !f.Nullable {
			fail("nil default on a non-nullable field")
		}
		return errs
	}
	// Defaults are checked against coercion and constraints, not validators.
	probe := *f
	probe.Validators = nil
	v, iss := checkValue(context.Background(), &probe, Root(), f.Default)
	if len(iss) > 0 {
		fail("invalid default: %v", iss)
		return errs
	}
	f.Default = v
	return errs
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Title returns the documentation title.
func (s *Schema) Title() string { return s.title }

// Description returns the documentation description.
func (s *Schema) Description() string { return s.description }

// Unknown returns the unknown-key policy.
func (s *Schema) Unknown() UnknownPolicy { return s.unknown }

// Fields returns copies of the field descriptors in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.clone()
	}
	return out
}

// Field looks up a field descriptor by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i].clone(), true
}

// FieldNames lists stored field names in declaration order.
func (s *Schema) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// ComputedNames lists derived field names in declaration order.
func (s *Schema) ComputedNames() []string {
	out := make([]string, len(s.computed))
	for i, c := range s.computed {
		out[i] = c.Name
	}
	return out
}
