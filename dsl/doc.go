// Package dsl provides a fluent builder for skema schemas.
//
// Overview
//   - Field builders: String(), Int(), Float(), Bool(), StringList(), StringMap(), Nested(schema).
//   - Constraints chain on the field builder: MinLen/MaxLen, Gt/Ge/Lt/Le, Pattern, Strict, OneOf, Email, URL.
//   - Presence: Default(v), DefaultFunc(fn), Nullable(); a field without a default is required.
//   - Validators: Before/After on fields, Check/Validate/BeforeValidate on the object.
//   - Derived fields: Computed(name, fn), evaluated lazily and cached per record.
//
// Constraints run in the order they are chained; the first failure is the
// only issue reported for that field.
//
// Example (quickstart)
//
//	address := g.Object("Address").
//	    Field("city", g.String().MinLen(2)).
//	    Field("pin", g.Int().Ge(100000).Le(999999)).
//	    MustBuild()
//
//	patient := g.Object("Patient").
//	    Field("name", g.String().MaxLen(50)).
//	    Field("age", g.Int().Gt(0).Lt(120)).
//	    Field("married", g.Bool()).Default(false).
//	    Field("address", g.Nested(address)).
//	    Computed("adult", func(r *skema.Record) any { return r.GetInt("age") >= 18 }).
//	    MustBuild()
//
//	rec, err := skema.Validate(ctx, patient, map[string]any{
//	    "name": "Nitish", "age": "30",
//	    "address": map[string]any{"city": "Gurgaon", "pin": 122001},
//	})
//	// err is skema.Issues when validation fails; rec.DumpJSON() renders it back.
//
// Example (cross-field check)
//
//	s := g.Object("Signup").
//	    Field("email", g.String().Email()).
//	    Field("confirm", g.String()).
//	    Check("email==confirm", func(ctx context.Context, r *skema.Record) error {
//	        if r.GetString("email") != r.GetString("confirm") {
//	            return fmt.Errorf("confirm must match email")
//	        }
//	        return nil
//	    }).
//	    MustBuild()
//	_, err := skema.Validate(ctx, s, map[string]any{"email": "a@b.io", "confirm": "x"})
//	_ = err // returned as Issues (code: "custom")
//
// JSON Schema output
//
//	sch, _ := s.JSONSchema()
//	// UnknownStrict => additionalProperties=false
package dsl
