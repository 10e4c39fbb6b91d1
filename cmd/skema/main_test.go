package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/skema/i18n"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate_Stdin(t *testing.T) {
	in := `{"name":"harsha","email":"abc@hdfc.com","linkedin":"http://linkedin.com/","age":"28",
		"weight":75.2,"height":1.72,"contact_details":{"phone":"12345"}}`
	out, _, err := run(t, in, "validate", "--schema", "PatientWithBMI", "--include", "name,age,bmi")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"harsha","age":28,"bmi":25.42}`+"\n", out)
}

func TestValidate_YAMLFile(t *testing.T) {
	path := writeFile(t, "profile.yaml", "gender: female\nage: '28'\naddress:\n  city: Pune\n  state: MH\n  pin: '414001'\n")
	out, _, err := run(t, "", "validate", "--schema", "PatientProfile", "-f", path, "--exclude-unset", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "gender: female\n")
	assert.Contains(t, out, "age: 28\n")
	assert.Contains(t, out, "    pin: 414001\n")
	assert.NotContains(t, out, "name:")
}

func TestValidate_Issues(t *testing.T) {
	_, stderr, err := run(t, `{"name":"Harsha","gender":"x","age":0}`, "validate", "--schema", "PatientWithAddress")
	require.Error(t, err)
	assert.True(t, errors.As(err, new(exitError)))
	assert.Contains(t, stderr, "3 validation error(s) for PatientWithAddress")
	assert.Contains(t, stderr, "age\n  Input should be greater than 0 [greater_than]")
	assert.Contains(t, stderr, "address\n  Field required [required]")

	_, stderr, err = run(t, `{"name":"Harsha","gender":"x","age":0}`, "validate", "--schema", "PatientWithAddress", "--fail-fast")
	require.Error(t, err)
	assert.Contains(t, stderr, "1 validation error(s)")

	_, stderr, err = run(t, `{`, "validate", "--schema", "PatientWithAddress")
	require.Error(t, err)
	assert.Contains(t, stderr, "[parse_error]")
}

func TestValidate_Language(t *testing.T) {
	t.Cleanup(func() { i18n.SetLanguage("en") })
	_, stderr, err := run(t, `{}`, "validate", "--schema", "Address", "--lang", "ja")
	require.Error(t, err)
	assert.Contains(t, stderr, "必須フィールドが不足しています")
}

func TestValidate_Errors(t *testing.T) {
	_, _, err := run(t, `{}`, "validate", "--schema", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown schema "Nope"`)

	_, _, err = run(t, `{}`, "validate")
	require.Error(t, err)

	_, _, err = run(t, `{}`, "validate", "--schema", "Address", "--format", "toml")
	require.Error(t, err)
}

func TestSchemasFile(t *testing.T) {
	path := writeFile(t, "schemas.yaml", `
name: Clinic
fields:
  - {name: title, type: string, min_length: 2}
  - {name: address, schema: Address}
`)
	out, _, err := run(t, `{"title":"City Care","address":{"city":"Pune","state":"MH","pin":411014}}`,
		"validate", "--schemas", path, "--schema", "Clinic", "--exclude", "address.state")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"City Care","address":{"city":"Pune","pin":411014}}`+"\n", out)

	out, _, err = run(t, "", "schema", "--schemas", path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "PatientProfile\nClinic\n"))
}

func TestSchemaCmd(t *testing.T) {
	out, _, err := run(t, "", "schema", "--schema", "Address")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "object"`)
	assert.Contains(t, out, `"minimum": 100000`)

	_, _, err = run(t, "", "schema", "--schema", "Nope")
	assert.Error(t, err)
}
