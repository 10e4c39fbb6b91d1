package skema

import (
	js "github.com/reoring/skema/jsonschema"
)

// JSONSchema projects the schema into a JSON Schema document. Computed fields
// appear as readOnly properties.
func (s *Schema) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{
		Type:        "object",
		Title:       s.title,
		Description: s.description,
		Properties:  make(map[string]*js.Schema, len(s.fields)+len(s.computed)),
	}
	if out.Title == "" {
		out.Title = s.name
	}
	for i := range s.fields {
		f := &s.fields[i]
		p, err := fieldJSONSchema(f)
		if err != nil {
			return nil, err
		}
		out.Properties[f.Name] = p
		if f.Required() {
			out.Required = append(out.Required, f.Name)
		}
	}
	for _, c := range s.computed {
		out.Properties[c.Name] = &js.Schema{Title: c.Name, Description: c.Description, ReadOnly: true}
	}
	if s.unknown == UnknownStrict {
		out.AdditionalProperties = false
	}
	return out, nil
}

func fieldJSONSchema(f *Field) (*js.Schema, error) {
	var p *js.Schema
	switch f.Type {
	case TypeObject:
		nested, err := f.Schema.JSONSchema()
		if err != nil {
			return nil, err
		}
		p = nested
	case TypeString:
		p = &js.Schema{Type: "string"}
	case TypeInt:
		p = &js.Schema{Type: "integer"}
	case TypeFloat:
		p = &js.Schema{Type: "number"}
	case TypeBool:
		p = &js.Schema{Type: "boolean"}
	case TypeStringList:
		p = &js.Schema{Type: "array", Items: &js.Schema{Type: "string"}}
	case TypeStringMap:
		p = &js.Schema{Type: "object", AdditionalProperties: &js.Schema{Type: "string"}}
	}
	for _, c := range f.Constraints {
		applyConstraint(p, f.Type, c)
	}
	if f.Nullable {
		p = &js.Schema{AnyOf: []*js.Schema{p, {Type: "null"}}}
	}
	if f.Title != "" {
		p.Title = f.Title
	}
	if f.Description != "" {
		p.Description = f.Description
	}
	p.Examples = append([]any(nil), f.Examples...)
	if f.HasDefault {
		d := f.Default
		if r, ok := d.(*Record); ok {
			d = r.Dump()
		}
		p.Default = d
	}
	return p, nil
}

func applyConstraint(p *js.Schema, t FieldType, c Constraint) {
	n := c.Len
	b := c.Bound
	switch c.Kind {
	case ConstraintMinLen:
		switch t {
		case TypeString:
			p.MinLength = &n
		case TypeStringList:
			p.MinItems = &n
		case TypeStringMap:
			p.MinProperties = &n
		}
	case ConstraintMaxLen:
		switch t {
		case TypeString:
			p.MaxLength = &n
		case TypeStringList:
			p.MaxItems = &n
		case TypeStringMap:
			p.MaxProperties = &n
		}
	case ConstraintGt:
		p.ExclusiveMinimum = &b
	case ConstraintGe:
		p.Minimum = &b
	case ConstraintLt:
		p.ExclusiveMaximum = &b
	case ConstraintLe:
		p.Maximum = &b
	case ConstraintPattern:
		p.Pattern = c.Pattern.String()
	case ConstraintEnum:
		p.Enum = append([]any(nil), c.Values...)
	case ConstraintFormat:
		switch c.Format {
		case FormatEmail:
			p.Format = "email"
		case FormatURL:
			p.Format = "uri"
		}
	}
}
