package skema_test

import (
	"math"

	skema "github.com/reoring/skema"
	g "github.com/reoring/skema/dsl"
)

func addressSchema() *skema.Schema {
	return g.Object("Address").
		Field("city", g.String().MinLen(2)).
		Field("state", g.String().MinLen(2)).
		Field("pin", g.Int().Ge(100000).Le(999999)).
		MustBuild()
}

func patientSchema() *skema.Schema {
	return g.Object("Patient").
		Field("name", g.String().MaxLen(50)).
		Field("age", g.Int().Gt(0).Lt(25)).
		Field("weight", g.Float().Gt(0).Strict()).
		Field("height", g.Float().Gt(0)).
		Field("married", g.Bool()).Default(false).
		Field("allergies", g.StringList().MaxLen(5)).DefaultFunc(func() any { return []string{} }).
		Field("contact_details", g.StringMap()).
		Field("address", g.Nested(addressSchema())).
		Computed("bmi", func(r *skema.Record) any {
			h := r.GetFloat("height")
			return math.Round(r.GetFloat("weight")/(h*h)*100) / 100
		}).
		MustBuild()
}

func patientInput() map[string]any {
	return map[string]any{
		"name":            "Nitish",
		"age":             "22",
		"weight":          75.2,
		"height":          1.72,
		"contact_details": map[string]any{"phone": "2353462"},
		"address": map[string]any{
			"city":  "Gurgaon",
			"state": "Haryana",
			"pin":   122001,
		},
	}
}

func with(m map[string]any, kv ...any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(string)] = kv[i+1]
	}
	return out
}

func without(m map[string]any, keys ...string) map[string]any {
	out := with(m)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
