package skema_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skema "github.com/reoring/skema"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := skema.Issues{
		{Path: "name", Code: skema.CodeRequired},
		{Path: "address.pin", Code: skema.CodeGreaterEqual},
	}
	assert.Equal(t, "required at name; greater_than_equal at address.pin", iss.Error())

	iss = append(iss, skema.Issue{Code: skema.CodeCustom}, skema.Issue{Path: "age", Code: skema.CodeLessThan})
	assert.Equal(t, "required at name; greater_than_equal at address.pin; custom at (root); ... (total 4)", iss.Error())
}

func TestAsIssues_Wrapped(t *testing.T) {
	var err error = skema.Issues{{Path: "age", Code: skema.CodeGreaterThan}}
	wrapped := fmt.Errorf("create patient: %w", err)

	iss, ok := skema.AsIssues(wrapped)
	require.True(t, ok)
	assert.True(t, iss.Has("age", skema.CodeGreaterThan))

	_, ok = skema.AsIssues(errors.New("boom"))
	assert.False(t, ok)
	_, ok = skema.AsIssues(nil)
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	cases := map[string]skema.Kind{
		skema.CodeRequired:      skema.KindMissingField,
		skema.CodeInvalidType:   skema.KindTypeMismatch,
		skema.CodeUnknownKey:    skema.KindTypeMismatch,
		skema.CodeCoercion:      skema.KindCoercionFailure,
		skema.CodeTooLong:       skema.KindConstraintViolation,
		skema.CodePattern:       skema.KindConstraintViolation,
		skema.CodeInvalidFormat: skema.KindConstraintViolation,
		skema.CodeCustom:        skema.KindCustom,
		"whatever":              skema.KindUnknown,
	}
	for code, want := range cases {
		assert.Equal(t, want, skema.KindOf(code), code)
	}
	assert.Equal(t, "constraint_violation", skema.KindConstraintViolation.String())
}

func TestPath(t *testing.T) {
	p := skema.Root().Field("allergies").Index(2)
	assert.Equal(t, "allergies.2", p.String())
	assert.Equal(t, "/allergies/2", p.Pointer())
	assert.Equal(t, "/", skema.Root().Pointer())
	assert.True(t, skema.ParsePath("").IsRoot())
	assert.Equal(t, []string{"a", "b"}, skema.ParsePath("a.b").Segments())
	assert.Equal(t, "/a~1b/c~0d", skema.Root().Field("a/b").Field("c~d").Pointer())
	assert.Equal(t, "address.pin", skema.Root().Field("address").Join("pin").String())

	keyed := skema.Root().Field("contact_details").Field("a.b").Field(`c\d`)
	assert.Equal(t, `contact_details.a\.b.c\\d`, keyed.String())
	assert.Equal(t, []string{"contact_details", "a.b", `c\d`}, skema.ParsePath(keyed.String()).Segments())
	assert.Equal(t, "/contact_details/a.b/c\\d", keyed.Pointer())
	assert.Equal(t, []string{"x", "a.b"}, skema.Root().Field("x").Join(`a\.b`).Segments())

	it := p.Issue(skema.CodeInvalidType, "bad", "expected", "string")
	assert.Equal(t, "allergies.2", it.Path)
	assert.Equal(t, map[string]any{"expected": "string"}, it.Params)
	assert.Equal(t, skema.KindTypeMismatch, it.Kind())
}

func TestConstraintParams(t *testing.T) {
	_, err := skema.Validate(t.Context(), patientSchema(), with(patientInput(), "name", "123456789012345678901234567890123456789012345678901"))
	iss, _ := skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, map[string]any{"max_length": 50, "actual_length": 51, "unit": "characters"}, iss[0].Params)
	assert.Equal(t, "Value should have at most 50 characters", iss[0].Message)

	_, err = skema.Validate(t.Context(), patientSchema(), with(patientInput(), "age", -3))
	iss, _ = skema.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, "0", iss[0].Params["gt"])
	assert.Equal(t, int64(-3), iss[0].Params["actual"])
}
