// Package skema provides:
//
// - Declarative record schemas: ordered typed fields with constraints, defaults and metadata
// - Validation with explicit coercion into immutable Records (Validate/ParseFrom)
// - A stable error model via Issues (dotted path, JSON Pointer, code, message, params)
// - Per-field presence so serialization can drop values that only came from defaults
// - Serialization to mappings, JSON and YAML with include/exclude filtering (Dump/DumpJSON/DumpYAML)
//
// Design policy:
// - Keep only public APIs in the root package; put conversion details under internal/.
// - Place the builder DSL under dsl/, reusable model validators under rules/, and the CLI under cmd/skema.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := buildSchema()
//	rec, err := skema.ParseFrom(ctx, s, skema.JSONBytes(data))
//	if iss, ok := skema.AsIssues(err); ok {
//	    // iss[0].Path == "address.pin", iss[0].Code == skema.CodeGreaterEqual
//	}
//	out, err := rec.DumpJSON(skema.DumpOpt{ExcludeUnset: true})
package skema
