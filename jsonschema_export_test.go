package skema_test

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skema "github.com/reoring/skema"
	g "github.com/reoring/skema/dsl"
)

func TestJSONSchema_Patient(t *testing.T) {
	sch, err := patientSchema().JSONSchema()
	require.NoError(t, err)

	assert.Equal(t, "object", sch.Type)
	assert.Equal(t, "Patient", sch.Title)
	assert.Equal(t, []string{"name", "age", "weight", "height", "contact_details", "address"}, sch.Required)
	assert.Nil(t, sch.AdditionalProperties)

	age := sch.Properties["age"]
	assert.Equal(t, "integer", age.Type)
	require.NotNil(t, age.ExclusiveMinimum)
	assert.Equal(t, 0.0, *age.ExclusiveMinimum)
	assert.Equal(t, 25.0, *age.ExclusiveMaximum)

	assert.Equal(t, false, sch.Properties["married"].Default)
	assert.Equal(t, 5, *sch.Properties["allergies"].MaxItems)
	assert.Equal(t, "string", sch.Properties["allergies"].Items.Type)
	assert.Equal(t, 50, *sch.Properties["name"].MaxLength)

	addr := sch.Properties["address"]
	assert.Equal(t, "Address", addr.Title)
	assert.Equal(t, 100000.0, *addr.Properties["pin"].Minimum)

	assert.True(t, sch.Properties["bmi"].ReadOnly)
}

func TestJSONSchema_StrictNullableFormats(t *testing.T) {
	s := g.Object("Contact").
		Field("email", g.String().Email().Description("primary address")).
		Field("site", g.String().URL().Nullable()).Default(nil).
		Field("kind", g.String().OneOf("home", "work")).
		Field("code", g.String().Pattern(`^[A-Z]{3}$`)).
		UnknownStrict().
		MustBuild()

	sch, err := s.JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, false, sch.AdditionalProperties)
	assert.Equal(t, "email", sch.Properties["email"].Format)
	assert.Equal(t, "primary address", sch.Properties["email"].Description)
	assert.Equal(t, []any{"home", "work"}, sch.Properties["kind"].Enum)
	assert.Equal(t, `^[A-Z]{3}$`, sch.Properties["code"].Pattern)

	site := sch.Properties["site"]
	require.Len(t, site.AnyOf, 2)
	assert.Equal(t, "uri", site.AnyOf[0].Format)
	assert.Equal(t, "null", site.AnyOf[1].Type)

	b, err := json.Marshal(sch)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"additionalProperties":false`)
	assert.Contains(t, string(b), `"required":["email","kind","code"]`)
}

func TestJSONSchema_NestedRecordDefault(t *testing.T) {
	addr := addressSchema()
	def, err := skema.Validate(t.Context(), addr, map[string]any{"city": "Pune", "state": "MH", "pin": 411001})
	require.NoError(t, err)
	s, err := skema.NewSchema("Home", []skema.Field{{Name: "address", Type: skema.TypeObject, Schema: addr, Default: def, HasDefault: true}})
	require.NoError(t, err)

	sch, err := s.JSONSchema()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Pune", "state": "MH", "pin": int64(411001)}, sch.Properties["address"].Default)
}
