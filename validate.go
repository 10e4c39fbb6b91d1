package skema

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/reoring/skema/i18n"
	"github.com/reoring/skema/internal/coerce"
)

// Validate checks input against s and returns an immutable Record. input must
// be a map[string]any, a map[string]string or a *Record. On failure the error
// is Issues listing every problem found (or the first one under FailFast), and
// no Record is returned.
//
// Each field goes through: default when absent, before validators, coercion,
// after validators, then constraints in declaration order. Model validators
// run only when every field passed.
func Validate(ctx context.Context, s *Schema, input any, opts ...ParseOpt) (*Record, error) {
	if s == nil {
		return nil, Issues{{Code: CodeInvalidType, Message: "nil schema"}}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if lastParseOpt(opts).FailFast {
		ctx = WithFailFast(ctx, true)
	}
	rec, iss := s.validate(ctx, input)
	if len(iss) > 0 {
		return nil, iss
	}
	return rec, nil
}

func (s *Schema) validate(ctx context.Context, input any) (*Record, Issues) {
	var in map[string]any
	switch v := input.(type) {
	case *Record:
		if v == nil {
			return nil, Issues{typeIssue(Root(), "object", nil)}
		}
		if v.schema == s {
			return v, nil
		}
		in = v.Dump()
	case map[string]any:
		in = v
	case map[string]string:
		in = make(map[string]any, len(v))
		for k, sv := range v {
			in[k] = sv
		}
	default:
		return nil, Issues{typeIssue(Root(), "object", input)}
	}

	if len(s.inputs) > 0 {
		in = maps.Clone(in)
		if in == nil {
			in = map[string]any{}
		}
		for _, iv := range s.inputs {
			out, err := iv.Fn(ctx, in)
			if err != nil {
				return nil, validatorIssues(Root(), iv.Name, err)
			}
			if out != nil {
				in = out
			}
		}
	}

	failFast := IsFailFast(ctx)
	rec := newRecord(s)
	var iss Issues
	for i := range s.fields {
		f := &s.fields[i]
		p := Root().Field(f.Name)
		raw, ok := in[f.Name]
		if !ok {
			v, applied, fiss := defaultValue(ctx, f, p)
			switch {
			case !applied:
				iss = AppendIssues(iss, p.Issue(CodeRequired, i18n.T(CodeRequired, nil)))
			case len(fiss) > 0:
				iss = AppendIssues(iss, fiss...)
			default:
				rec.values[i] = v
				rec.presence[i] = PresenceDefaultApplied
			}
		} else {
			rec.presence[i] = PresenceSeen
			if raw == nil {
				rec.presence[i] |= PresenceWasNull
			}
			v, fiss := checkValue(ctx, f, p, raw)
			if len(fiss) > 0 {
				iss = AppendIssues(iss, fiss...)
			} else {
				rec.values[i] = v
			}
		}
		if failFast && len(iss) > 0 {
			return nil, iss
		}
	}

	if s.unknown == UnknownStrict {
		for _, k := range slices.Sorted(maps.Keys(in)) {
			if _, ok := s.index[k]; ok {
				continue
			}
			if _, ok := s.compIndex[k]; ok {
				continue
			}
			iss = AppendIssues(iss, Root().Field(k).Issue(CodeUnknownKey, i18n.T(CodeUnknownKey, nil)))
			if failFast {
				return nil, iss
			}
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}

	for _, mv := range s.models {
		out, err := mv.Fn(ctx, rec)
		if err != nil {
			return nil, validatorIssues(Root(), mv.Name, err)
		}
		if out == nil {
			continue
		}
		if out.schema != s {
			return nil, Issues{{Code: CodeCustom, Message: "model validator returned a record of another schema", Rule: mv.Name}}
		}
		rec = out
	}
	return rec, nil
}

func defaultValue(ctx context.Context, f *Field, p Path) (any, bool, Issues) {
	switch {
	case f.HasDefault:
		return copyValue(f.Default), true, nil
	case f.DefaultFactory != nil:
		probe := *f
		probe.Validators = nil
		v, iss := checkValue(ctx, &probe, p, f.DefaultFactory())
		return v, true, iss
	}
	return nil, false, nil
}

// checkValue runs the per-field pipeline on a present value.
func checkValue(ctx context.Context, f *Field, p Path, raw any) (any, Issues) {
	v := raw
	for _, fv := range f.Validators {
		if fv.Mode != ModeBefore {
			continue
		}
		out, err := fv.Fn(ctx, v)
		if err != nil {
			return nil, validatorIssues(p, fv.Name, err)
		}
		v = out
	}
	if v == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, Issues{typeIssue(p, f.Type.String(), nil)}
	}

	cv, iss := coerceValue(ctx, f, p, v)
	if len(iss) > 0 {
		return nil, iss
	}

	for _, fv := range f.Validators {
		if fv.Mode != ModeAfter {
			continue
		}
		out, err := fv.Fn(ctx, cv)
		if err != nil {
			return nil, validatorIssues(p, fv.Name, err)
		}
		if !storedAs(f, out) {
			return nil, Issues{{
				Path:    p.String(),
				Code:    CodeCustom,
				Message: fmt.Sprintf("validator returned %T for a %s field", out, f.Type),
				Rule:    fv.Name,
			}}
		}
		cv = out
	}

	for _, c := range f.Constraints {
		check, ok := constraintChecks[c.Kind]
		if !ok {
			continue
		}
		if it := check(c, cv); it != nil {
			it.Path = p.String()
			return nil, Issues{*it}
		}
	}
	return cv, nil
}

func coerceValue(ctx context.Context, f *Field, p Path, v any) (any, Issues) {
	if f.Type == TypeObject {
		if r, ok := v.(*Record); ok && r != nil && r.schema == f.Schema {
			return r, nil
		}
		rec, iss := f.Schema.validate(ctx, v)
		if len(iss) > 0 {
			return nil, iss.rebase(p)
		}
		return rec, nil
	}
	cv, err := coerceScalar(f.Type, v, f.IsStrict())
	if err != nil {
		return nil, Issues{coercionIssue(p, err)}
	}
	return cv, nil
}

func coerceScalar(t FieldType, v any, strict bool) (any, *coerce.Error) {
	switch t {
	case TypeString:
		return unwrap(coerce.String(v))
	case TypeBool:
		return unwrap(coerce.Bool(v))
	case TypeInt:
		return unwrap(coerce.Int(v, strict))
	case TypeFloat:
		return unwrap(coerce.Float(v, strict))
	case TypeStringList:
		return unwrap(coerce.StringList(v))
	case TypeStringMap:
		return unwrap(coerce.StringMap(v))
	}
	return nil, &coerce.Error{Failure: coerce.Mismatch, Expected: t.String(), Got: coerce.KindName(v)}
}

func unwrap[T any](v T, err *coerce.Error) (any, *coerce.Error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

func storedAs(f *Field, v any) bool {
	switch x := v.(type) {
	case nil:
		return f.Nullable
	case string:
		return f.Type == TypeString
	case int64:
		return f.Type == TypeInt
	case float64:
		return f.Type == TypeFloat
	case bool:
		return f.Type == TypeBool
	case []string:
		return f.Type == TypeStringList
	case map[string]string:
		return f.Type == TypeStringMap
	case *Record:
		return f.Type == TypeObject && x != nil && x.schema == f.Schema
	}
	return false
}

func typeIssue(p Path, expected string, got any) Issue {
	return p.Issue(CodeInvalidType, i18n.T(CodeInvalidType, map[string]string{"expected": expected}),
		"expected", expected, "got", coerce.KindName(got))
}

func coercionIssue(p Path, e *coerce.Error) Issue {
	if e.Key != "" {
		p = p.Field(e.Key)
	}
	code := CodeCoercion
	if e.Failure == coerce.Mismatch {
		code = CodeInvalidType
	}
	it := p.Issue(code, i18n.T(code, map[string]string{"expected": e.Expected}),
		"expected", e.Expected, "got", e.Got)
	if e.Detail != "" {
		it.Params["detail"] = e.Detail
	}
	it.Cause = e
	return it
}

// validatorIssues converts a validator error into Issues anchored at p. A
// returned Issues is rebased under p; any other error becomes one custom issue.
func validatorIssues(p Path, name string, err error) Issues {
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		out := append(Issues(nil), iss...).rebase(p)
		for i := range out {
			if out[i].Rule == "" {
				out[i].Rule = name
			}
			if out[i].Code == "" {
				out[i].Code = CodeCustom
			}
			if out[i].Message == "" {
				out[i].Message = i18n.T(out[i].Code, nil)
			}
		}
		return out
	}
	return Issues{{Path: p.String(), Code: CodeCustom, Message: err.Error(), Cause: err, Rule: name}}
}

func copyValue(v any) any {
	switch x := v.(type) {
	case []string:
		return append([]string{}, x...)
	case map[string]string:
		return maps.Clone(x)
	}
	return v
}
