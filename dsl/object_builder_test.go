package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	skema "github.com/reoring/skema"
	g "github.com/reoring/skema/dsl"
)

// TestObject_Primitives covers one field of each scalar kind.
func TestObject_Primitives(t *testing.T) {
	ctx := context.Background()
	s := g.Object("P").
		Field("s", g.String()).
		Field("i", g.Int()).
		Field("f", g.Float()).
		Field("b", g.Bool()).
		Field("l", g.StringList()).
		Field("m", g.StringMap()).
		MustBuild()

	rec, err := skema.Validate(ctx, s, map[string]any{
		"s": "hello", "i": "3", "f": "1.5", "b": true,
		"l": []any{"x"}, "m": map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GetString("s") != "hello" || rec.GetInt("i") != 3 || rec.GetFloat("f") != 1.5 || !rec.GetBool("b") {
		t.Fatalf("unexpected scalars: %s", rec)
	}
	if l := rec.GetStrings("l"); len(l) != 1 || l[0] != "x" {
		t.Fatalf("unexpected list: %v", l)
	}
	if rec.GetStringMap("m")["k"] != "v" {
		t.Fatalf("unexpected map: %v", rec.GetStringMap("m"))
	}

	// string fields never coerce
	if _, err := skema.Validate(ctx, s, map[string]any{
		"s": 1, "i": 1, "f": 1, "b": false, "l": []any{}, "m": map[string]any{},
	}); err == nil {
		t.Fatalf("expected invalid_type for non-string")
	}
}

// TestObject_ChainedConstraintsRunInOrder checks the first failing constraint
// is the only one reported.
func TestObject_ChainedConstraintsRunInOrder(t *testing.T) {
	s := g.Object("C").
		Field("code", g.String().MinLen(3).Pattern(`^[a-z]+$`)).
		MustBuild()

	_, err := skema.Validate(context.Background(), s, map[string]any{"code": "A"})
	iss, ok := skema.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != skema.CodeTooShort {
		t.Fatalf("want single too_short, got %v", err)
	}

	_, err = skema.Validate(context.Background(), s, map[string]any{"code": "ABCD"})
	iss, _ = skema.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != skema.CodePattern {
		t.Fatalf("want pattern, got %v", err)
	}
	if iss[0].Params["pattern"] != `^[a-z]+$` {
		t.Fatalf("pattern param: %v", iss[0].Params)
	}
}

func TestObject_PatternSearchesUnanchored(t *testing.T) {
	s := g.Object("P").Field("v", g.String().Pattern(`\d{3}`)).MustBuild()
	if !skema.Is(context.Background(), s, map[string]any{"v": "ab123cd"}) {
		t.Fatalf("pattern should match anywhere in the string")
	}
}

func TestObject_BuildCollectsErrors(t *testing.T) {
	_, err := g.Object("Bad").
		Field("a", g.String().Pattern(`(`)).
		Field("b", g.String().Gt(1)).
		Field("a", g.Int()).
		Build()
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !errors.Is(err, skema.ErrInvalidSchema) {
		t.Fatalf("want ErrInvalidSchema, got %v", err)
	}
	for _, want := range []string{"pattern", "does not apply", "duplicate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestObject_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	g.Object("").Field("x", g.Int()).MustBuild()
}

func TestObject_EmailAndURL(t *testing.T) {
	s := g.Object("Contact").
		Field("email", g.String().Email()).
		Field("linkedin", g.String().URL()).
		MustBuild()
	ctx := context.Background()

	if !skema.Is(ctx, s, map[string]any{"email": "abc@gmail.com", "linkedin": "http://linkedin.com/1322"}) {
		t.Fatalf("valid contact rejected")
	}
	for _, in := range []map[string]any{
		{"email": "abc", "linkedin": "http://linkedin.com/1322"},
		{"email": "abc@localhost", "linkedin": "http://linkedin.com/1322"},
		{"email": "Abc <abc@gmail.com>", "linkedin": "http://linkedin.com/1322"},
		{"email": "abc@gmail.com", "linkedin": "linkedin.com/1322"},
	} {
		_, err := skema.Validate(ctx, s, in)
		iss, _ := skema.AsIssues(err)
		if len(iss) != 1 || iss[0].Code != skema.CodeInvalidFormat {
			t.Errorf("input %v: want invalid_format, got %v", in, err)
		}
	}
}

func TestObject_OneOf(t *testing.T) {
	s := g.Object("E").
		Field("level", g.Int().OneOf(1, 2, 3)).
		Field("color", g.String().OneOf("red", "green")).
		MustBuild()
	ctx := context.Background()

	if !skema.Is(ctx, s, map[string]any{"level": "2", "color": "red"}) {
		t.Fatalf("expected enum match after coercion")
	}
	_, err := skema.Validate(ctx, s, map[string]any{"level": 4, "color": "blue"})
	iss, _ := skema.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("want 2 issues, got %v", err)
	}
	if got := iss.ByPath("color")[0].Message; got != "Input should be 'red' or 'green'" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestObject_Metadata(t *testing.T) {
	s := g.Object("M").
		Field("name", g.String().Title("Name").Description("Name of the patient").Examples("Amit")).
		MustBuild()
	f, ok := s.Field("name")
	if !ok {
		t.Fatalf("field missing")
	}
	if f.Title != "Name" || f.Description != "Name of the patient" || len(f.Examples) != 1 {
		t.Fatalf("unexpected metadata: %+v", f)
	}
}

func TestObject_ComputedWithDescription(t *testing.T) {
	s := g.Object("C").
		Field("a", g.Int()).
		ComputedWith(skema.Computed{Name: "twice", Description: "a doubled", Fn: func(r *skema.Record) any {
			return r.GetInt("a") * 2
		}}).
		MustBuild()
	sch, err := s.JSONSchema()
	if err != nil {
		t.Fatal(err)
	}
	if p := sch.Properties["twice"]; p == nil || !p.ReadOnly || p.Description != "a doubled" {
		t.Fatalf("computed export: %+v", p)
	}
}

func TestObject_NilFieldBuilder(t *testing.T) {
	if _, err := g.Object("N").Field("x", nil).Build(); err == nil {
		t.Fatalf("expected error for nil field builder")
	}
}
