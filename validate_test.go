package skema_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skema "github.com/reoring/skema"
	g "github.com/reoring/skema/dsl"
)

func TestValidate_AgeBoundsAreExclusive(t *testing.T) {
	ctx := context.Background()
	s := patientSchema()

	for _, age := range []any{1, 24, "1", "24"} {
		_, err := skema.Validate(ctx, s, with(patientInput(), "age", age))
		assert.NoError(t, err, "age %v", age)
	}

	_, err := skema.Validate(ctx, s, with(patientInput(), "age", 0))
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "age", iss[0].Path)
	assert.Equal(t, skema.CodeGreaterThan, iss[0].Code)
	assert.Equal(t, skema.KindConstraintViolation, iss[0].Kind())

	_, err = skema.Validate(ctx, s, with(patientInput(), "age", 25))
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.True(t, iss.Has("age", skema.CodeLessThan))
	assert.Equal(t, "Input should be less than 25", iss[0].Message)
}

func TestValidate_LaxIntAcceptsNumericString(t *testing.T) {
	rec, err := skema.Validate(context.Background(), patientSchema(), patientInput())
	require.NoError(t, err)
	v, ok := rec.Get("age")
	require.True(t, ok)
	assert.Equal(t, int64(22), v)

	_, err = skema.Validate(context.Background(), patientSchema(), with(patientInput(), "age", "twenty"))
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, skema.CodeCoercion, iss[0].Code)
	assert.Equal(t, skema.KindCoercionFailure, iss[0].Kind())

	_, err = skema.Validate(context.Background(), patientSchema(), with(patientInput(), "age", 22.5))
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, skema.CodeCoercion, iss[0].Code)
}

func TestValidate_StrictFloatRejectsString(t *testing.T) {
	ctx := context.Background()
	_, err := skema.Validate(ctx, patientSchema(), with(patientInput(), "weight", "44.2"))
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "weight", iss[0].Path)
	assert.Equal(t, skema.CodeInvalidType, iss[0].Code)
	assert.Equal(t, skema.KindTypeMismatch, iss[0].Kind())

	// numbers of any kind are still accepted
	rec, err := skema.Validate(ctx, patientSchema(), with(patientInput(), "weight", 44))
	require.NoError(t, err)
	assert.Equal(t, 44.0, rec.GetFloat("weight"))
}

func TestValidate_MissingRequiredField(t *testing.T) {
	_, err := skema.Validate(context.Background(), patientSchema(), without(patientInput(), "name"))
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "name", iss[0].Path)
	assert.Equal(t, skema.CodeRequired, iss[0].Code)
	assert.Equal(t, skema.KindMissingField, iss[0].Kind())
}

func TestValidate_NestedIssuePathDoesNotBlockSiblings(t *testing.T) {
	in := with(patientInput(),
		"name", strings.Repeat("x", 51),
		"address", map[string]any{"city": "Gurgaon", "state": "Haryana", "pin": 1234},
	)
	_, err := skema.Validate(context.Background(), patientSchema(), in)
	iss, ok := skema.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "address.pin"}, iss.Paths())
	assert.True(t, iss.Has("name", skema.CodeTooLong))
	assert.True(t, iss.Has("address.pin", skema.CodeGreaterEqual))
	assert.Equal(t, "/address/pin", iss.ByPath("address.pin")[0].Pointer())
}

func TestValidate_CollectsAllAndFailFastStops(t *testing.T) {
	ctx := context.Background()
	in := with(without(patientInput(), "name"), "age", 0, "weight", "x")

	_, err := skema.Validate(ctx, patientSchema(), in)
	iss, _ := skema.AsIssues(err)
	assert.Len(t, iss, 3)

	_, err = skema.Validate(ctx, patientSchema(), in, skema.ParseOpt{FailFast: true})
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "name", iss[0].Path)
}

func TestValidate_ContainerElementPaths(t *testing.T) {
	in := with(patientInput(),
		"allergies", []any{"pollen", 7},
		"contact_details", map[string]any{"phone": "1", "fax": false},
	)
	_, err := skema.Validate(context.Background(), patientSchema(), in)
	iss, _ := skema.AsIssues(err)
	assert.True(t, iss.Has("allergies.1", skema.CodeInvalidType))
	assert.True(t, iss.Has("contact_details.fax", skema.CodeInvalidType))

	_, err = skema.Validate(context.Background(), patientSchema(),
		with(patientInput(), "contact_details", map[string]any{"a.b": false}))
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, `contact_details.a\.b`, iss[0].Path)
	assert.Equal(t, "/contact_details/a.b", iss[0].Pointer())

	_, err = skema.Validate(context.Background(), patientSchema(),
		with(patientInput(), "allergies", []string{"a", "b", "c", "d", "e", "f"}))
	iss, _ = skema.AsIssues(err)
	assert.True(t, iss.Has("allergies", skema.CodeTooLong))
}

func TestValidate_DefaultsAndPresence(t *testing.T) {
	rec, err := skema.Validate(context.Background(), patientSchema(), patientInput())
	require.NoError(t, err)

	assert.False(t, rec.GetBool("married"))
	assert.Equal(t, []string{}, rec.GetStrings("allergies"))
	assert.False(t, rec.IsSet("married"))
	assert.True(t, rec.IsSet("name"))

	pm := rec.Presence()
	assert.Equal(t, skema.PresenceDefaultApplied, pm["married"])
	assert.True(t, pm["married"].DefaultOnly())
	assert.Equal(t, skema.PresenceSeen, pm["address.city"])
	assert.Equal(t, []string{"name", "age", "weight", "height", "contact_details", "address"}, rec.FieldsSet())
}

func TestValidate_DefaultFactoryRunsPerRecord(t *testing.T) {
	var calls atomic.Int32
	s := g.Object("Tags").
		Field("tags", g.StringList()).DefaultFunc(func() any {
		calls.Add(1)
		return []any{"new"}
	}).
		MustBuild()

	a := skema.MustValidate(context.Background(), s, map[string]any{})
	b := skema.MustValidate(context.Background(), s, map[string]any{})
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"new"}, a.GetStrings("tags"))

	tags := a.GetStrings("tags")
	tags[0] = "mutated"
	assert.Equal(t, []string{"new"}, a.GetStrings("tags"))
	assert.Equal(t, []string{"new"}, b.GetStrings("tags"))
}

func TestValidate_Nullable(t *testing.T) {
	s := g.Object("N").
		Field("note", g.String().Nullable().MinLen(3)).Default(nil).
		Field("flag", g.Bool()).
		MustBuild()

	rec, err := skema.Validate(context.Background(), s, map[string]any{"note": nil, "flag": true})
	require.NoError(t, err)
	v, ok := rec.Get("note")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, skema.PresenceSeen|skema.PresenceWasNull, rec.Presence()["note"])

	_, err = skema.Validate(context.Background(), s, map[string]any{"flag": nil})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.True(t, iss.Has("flag", skema.CodeInvalidType))
}

func TestValidate_UnknownKeys(t *testing.T) {
	ctx := context.Background()
	strip := g.Object("A").Field("a", g.String()).Computed("upper", func(r *skema.Record) any {
		return strings.ToUpper(r.GetString("a"))
	}).MustBuild()
	rec, err := skema.Validate(ctx, strip, map[string]any{"a": "x", "zzz": 1})
	require.NoError(t, err)
	_, ok := rec.Get("zzz")
	assert.False(t, ok)

	strict := g.Object("B").Field("a", g.String()).Computed("upper", func(r *skema.Record) any {
		return strings.ToUpper(r.GetString("a"))
	}).UnknownStrict().MustBuild()
	_, err = skema.Validate(ctx, strict, map[string]any{"a": "x", "zzz": 1, "yyy": 2, "upper": "ignored"})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 2)
	assert.Equal(t, "yyy", iss[0].Path)
	assert.Equal(t, "zzz", iss[1].Path)
	assert.Equal(t, skema.CodeUnknownKey, iss[0].Code)
}

func TestValidate_RejectsNonMapping(t *testing.T) {
	_, err := skema.Validate(context.Background(), addressSchema(), []any{1})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "", iss[0].Path)
	assert.Equal(t, skema.CodeInvalidType, iss[0].Code)

	_, err = skema.Validate(context.Background(), patientSchema(), with(patientInput(), "address", "Gurgaon"))
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.True(t, iss.Has("address", skema.CodeInvalidType))
}

func TestValidate_FieldValidatorOrder(t *testing.T) {
	var order []string
	s := g.Object("V").
		Field("code", g.String().OneOf("ABC").
			Before("trim", func(_ context.Context, v any) (any, error) {
				order = append(order, "before")
				if s, ok := v.(string); ok {
					return strings.TrimSpace(s), nil
				}
				return v, nil
			}).
			Validate(skema.After("upper", func(s string) (string, error) {
				order = append(order, "after")
				return strings.ToUpper(s), nil
			}))).
		MustBuild()

	rec, err := skema.Validate(context.Background(), s, map[string]any{"code": "  abc "})
	require.NoError(t, err)
	assert.Equal(t, "ABC", rec.GetString("code"))
	assert.Equal(t, []string{"before", "after"}, order)
}

func TestValidate_FieldValidatorRejection(t *testing.T) {
	s := g.Object("E").
		Field("email", g.String().Email().Validate(skema.Check("domain", func(s string) error {
			if !strings.HasSuffix(s, "@hdfc.com") {
				return errors.New("Not a valid domain")
			}
			return nil
		}))).
		MustBuild()

	_, err := skema.Validate(context.Background(), s, map[string]any{"email": "abc@gmail.com"})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "email", iss[0].Path)
	assert.Equal(t, skema.CodeCustom, iss[0].Code)
	assert.Equal(t, "Not a valid domain", iss[0].Message)
	assert.Equal(t, "domain", iss[0].Rule)

	_, err = skema.Validate(context.Background(), s, map[string]any{"email": "not-an-email"})
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, skema.CodeCustom, iss[0].Code, "validators run before constraints")
}

func TestValidate_ModelValidators(t *testing.T) {
	var runs atomic.Int32
	s := g.Object("M").
		Field("age", g.Int()).
		Field("contacts", g.StringMap()).
		Check("emergency", func(_ context.Context, r *skema.Record) error {
			runs.Add(1)
			if _, ok := r.GetStringMap("contacts")["emergency"]; r.GetInt("age") > 60 && !ok {
				return errors.New("Patients older than 60 must have an emergency contact")
			}
			return nil
		}).
		MustBuild()
	ctx := context.Background()

	_, err := skema.Validate(ctx, s, map[string]any{"age": 65, "contacts": map[string]any{"phone": "1"}})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "", iss[0].Path)
	assert.Equal(t, skema.CodeCustom, iss[0].Code)
	assert.Equal(t, skema.KindCustom, iss[0].Kind())
	assert.Equal(t, "emergency", iss[0].Rule)

	_, err = skema.Validate(ctx, s, map[string]any{"age": 65, "contacts": map[string]any{"emergency": "1"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), runs.Load())

	// skipped when fields fail
	_, err = skema.Validate(ctx, s, map[string]any{"age": "old"})
	require.Error(t, err)
	assert.Equal(t, int32(2), runs.Load())
}

func TestValidate_ModelValidatorTransforms(t *testing.T) {
	s := g.Object("T").
		Field("name", g.String()).
		Field("slug", g.String()).Default("").
		Validate(skema.ModelValidator{Name: "slug", Fn: func(ctx context.Context, r *skema.Record) (*skema.Record, error) {
			if r.GetString("slug") != "" {
				return r, nil
			}
			return r.With(ctx, "slug", strings.ToLower(r.GetString("name")))
		}}).
		MustBuild()

	rec, err := skema.Validate(context.Background(), s, map[string]any{"name": "Harsha"})
	require.NoError(t, err)
	assert.Equal(t, "harsha", rec.GetString("slug"))
	assert.True(t, rec.IsSet("slug"))
}

func TestValidate_InputValidatorRewritesMapping(t *testing.T) {
	s := g.Object("I").
		Field("name", g.String()).
		BeforeValidate(skema.InputValidator{Name: "alias", Fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			if v, ok := in["full_name"]; ok {
				in["name"] = v
				delete(in, "full_name")
			}
			return in, nil
		}}).
		MustBuild()

	in := map[string]any{"full_name": "Ann"}
	rec, err := skema.Validate(context.Background(), s, in)
	require.NoError(t, err)
	assert.Equal(t, "Ann", rec.GetString("name"))
	assert.Contains(t, in, "full_name", "caller input is not modified")
}

func TestValidate_InputValidatorOnNilMapping(t *testing.T) {
	s := g.Object("I").
		Field("a", g.String()).
		BeforeValidate(skema.InputValidator{Name: "fill", Fn: func(_ context.Context, in map[string]any) (map[string]any, error) {
			in["a"] = "filled"
			return in, nil
		}}).
		MustBuild()

	var rec *skema.Record
	var err error
	require.NotPanics(t, func() {
		rec, err = skema.Validate(context.Background(), s, map[string]any(nil))
	})
	require.NoError(t, err)
	assert.Equal(t, "filled", rec.GetString("a"))
}

func TestValidate_RecordInput(t *testing.T) {
	ctx := context.Background()
	addr := skema.MustValidate(ctx, addressSchema(), map[string]any{"city": "Pune", "state": "MH", "pin": 411001})

	rec, err := skema.Validate(ctx, patientSchema(), with(patientInput(), "address", addr))
	require.NoError(t, err)
	assert.Equal(t, "Pune", rec.GetRecord("address").GetString("city"))

	again, err := skema.Validate(ctx, addr.Schema(), addr)
	require.NoError(t, err)
	assert.Same(t, addr, again)
}

func TestValidate_ServiceInjection(t *testing.T) {
	type allow struct{ suffix string }
	s := g.Object("S").
		Field("email", g.String().After("svc", func(ctx context.Context, v any) (any, error) {
			a, err := skema.RequireService[allow](ctx)
			if err != nil {
				return nil, err
			}
			if !strings.HasSuffix(v.(string), a.suffix) {
				return nil, errors.New("domain not allowed")
			}
			return v, nil
		})).
		MustBuild()

	_, err := skema.Validate(context.Background(), s, map[string]any{"email": "a@x.io"})
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "email", iss[0].Path)
	assert.Equal(t, skema.CodeDependencyUnavailable, iss[0].Code)
	assert.Equal(t, "dependency unavailable", iss[0].Message)
	assert.Equal(t, "skema_test.allow", iss[0].Params["service"])
	assert.Equal(t, "svc", iss[0].Rule)

	ctx := skema.WithService(context.Background(), allow{suffix: "@x.io"})
	assert.True(t, skema.Is(ctx, s, map[string]any{"email": "a@x.io"}))
	_, ok := skema.SafeValidate(ctx, s, map[string]any{"email": "a@y.io"})
	assert.False(t, ok)
}

func TestValidate_ConcurrentUse(t *testing.T) {
	s := patientSchema()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := skema.Validate(context.Background(), s, patientInput())
			if err != nil {
				errs <- err
				return
			}
			_, _ = rec.DumpJSON()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}
