// Package schemafile builds skema schemas from YAML declarations.
//
// A file holds one schema per YAML document:
//
//	name: Address
//	fields:
//	  - {name: city, type: string, min_length: 2}
//	  - {name: pin, type: int, ge: 100000, le: 999999}
//	---
//	name: Patient
//	unknown: strict
//	fields:
//	  - {name: name, type: string, max_length: 50}
//	  - {name: weight, type: float, gt: 0, strict: true}
//	  - {name: height, type: float, gt: 0}
//	  - {name: married, type: bool, default: false}
//	  - {name: address, schema: Address}
//	computed:
//	  - {name: bmi, expr: "math.round(weight / (height * height) * 100.0) / 100.0"}
//	rules:
//	  - {name: heavy, expr: "weight < 300.0", message: "weight out of range"}
//
// Nested references resolve by name across documents and against schemas
// already in the Catalog; cycles are rejected.
package schemafile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	skema "github.com/reoring/skema"
	"github.com/reoring/skema/rules"
)

// ErrReference is wrapped by unknown-reference and cycle errors.
var ErrReference = errors.New("schemafile: bad schema reference")

// Document is one YAML schema declaration.
type Document struct {
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Unknown     string         `yaml:"unknown"`
	Fields      []FieldSpec    `yaml:"fields"`
	Computed    []ComputedSpec `yaml:"computed"`
	Rules       []RuleSpec     `yaml:"rules"`
}

// FieldSpec declares one field. Numeric bounds apply to int and float fields,
// lengths to strings, lists and maps.
type FieldSpec struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Schema      string     `yaml:"schema"`
	MinLength   *int       `yaml:"min_length"`
	MaxLength   *int       `yaml:"max_length"`
	Gt          *float64   `yaml:"gt"`
	Ge          *float64   `yaml:"ge"`
	Lt          *float64   `yaml:"lt"`
	Le          *float64   `yaml:"le"`
	Pattern     string     `yaml:"pattern"`
	Strict      bool       `yaml:"strict"`
	Enum        []any      `yaml:"enum"`
	Format      string     `yaml:"format"`
	Default     *yaml.Node `yaml:"default"`
	Nullable    bool       `yaml:"nullable"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Examples    []any      `yaml:"examples"`
}

var fieldKeys = func() []string {
	t := reflect.TypeFor[FieldSpec]()
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, t.Field(i).Tag.Get("yaml"))
	}
	return keys
}()

// UnmarshalYAML keeps an explicit `default: null` and rejects unknown keys.
func (fs *FieldSpec) UnmarshalYAML(n *yaml.Node) error {
	type plain FieldSpec
	if err := n.Decode((*plain)(fs)); err != nil {
		return err
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if !slices.Contains(fieldKeys, k.Value) {
			return fmt.Errorf("line %d: field %s not found in field spec", k.Line, k.Value)
		}
		if k.Value == "default" {
			fs.Default = n.Content[i+1]
		}
	}
	return nil
}

// ComputedSpec declares a derived field as a CEL expression over the stored
// fields.
type ComputedSpec struct {
	Name        string `yaml:"name"`
	Expr        string `yaml:"expr"`
	Description string `yaml:"description"`
}

// RuleSpec declares a CEL predicate that must hold for every record.
type RuleSpec struct {
	Name    string `yaml:"name"`
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`
}

// Catalog is a set of named schemas. It is not safe for concurrent Load;
// lookups on a loaded Catalog are.
type Catalog struct {
	schemas map[string]*skema.Schema
	order   []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog { return &Catalog{schemas: map[string]*skema.Schema{}} }

// Load parses data into a new Catalog.
func Load(data []byte) (*Catalog, error) {
	c := NewCatalog()
	if err := c.Load(data); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads and parses a schema file into a new Catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: %w", err)
	}
	c, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Add registers an already built schema under its name.
func (c *Catalog) Add(s *skema.Schema) error {
	if _, dup := c.schemas[s.Name()]; dup {
		return fmt.Errorf("schemafile: duplicate schema %q", s.Name())
	}
	c.schemas[s.Name()] = s
	c.order = append(c.order, s.Name())
	return nil
}

// Get returns the schema with the given name.
func (c *Catalog) Get(name string) (*skema.Schema, bool) {
	s, ok := c.schemas[name]
	return s, ok
}

// Names lists schema names in registration order.
func (c *Catalog) Names() []string { return slices.Clone(c.order) }

// Load parses every document in data and adds the resulting schemas. On error
// the catalog is left unchanged.
func (c *Catalog) Load(data []byte) error {
	docs, err := decode(data)
	if err != nil {
		return err
	}
	byName := make(map[string]*Document, len(docs))
	for i := range docs {
		d := &docs[i]
		if d.Name == "" {
			return fmt.Errorf("schemafile: document %d: name is required", i+1)
		}
		if _, dup := byName[d.Name]; dup {
			return fmt.Errorf("schemafile: duplicate schema %q", d.Name)
		}
		if _, dup := c.schemas[d.Name]; dup {
			return fmt.Errorf("schemafile: duplicate schema %q", d.Name)
		}
		byName[d.Name] = d
	}

	b := &builder{docs: byName, known: c.schemas, built: map[string]*skema.Schema{}, state: map[string]int{}}
	for _, d := range docs {
		if _, err := b.build(d.Name, nil); err != nil {
			return err
		}
	}
	for _, d := range docs {
		c.schemas[d.Name] = b.built[d.Name]
		c.order = append(c.order, d.Name)
	}
	return nil
}

func decode(data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var docs []Document
	for {
		var d Document
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("schemafile: document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return nil, errors.New("schemafile: no schema documents")
	}
	return docs, nil
}

const (
	unvisited = iota
	visiting
	done
)

type builder struct {
	docs  map[string]*Document
	known map[string]*skema.Schema
	built map[string]*skema.Schema
	state map[string]int
}

// build resolves references depth-first; stack holds the names being built
// for cycle reports.
func (b *builder) build(name string, stack []string) (*skema.Schema, error) {
	if s, ok := b.known[name]; ok {
		return s, nil
	}
	d, ok := b.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown schema %q", ErrReference, name)
	}
	switch b.state[name] {
	case done:
		return b.built[name], nil
	case visiting:
		cycle := slices.Concat(stack[slices.Index(stack, name):], []string{name})
		return nil, fmt.Errorf("%w: cycle %s", ErrReference, strings.Join(cycle, " -> "))
	}
	b.state[name] = visiting
	stack = append(stack, name)

	fields := make([]skema.Field, 0, len(d.Fields))
	for _, fs := range d.Fields {
		f, err := b.field(name, fs, stack)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	opts, err := schemaOptions(d)
	if err != nil {
		return nil, err
	}
	s, err := skema.NewSchema(name, fields, opts...)
	if err != nil {
		return nil, err
	}
	b.state[name] = done
	b.built[name] = s
	return s, nil
}

func (b *builder) field(schema string, fs FieldSpec, stack []string) (skema.Field, error) {
	fail := func(format string, a ...any) (skema.Field, error) {
		return skema.Field{}, fmt.Errorf("schemafile: %s.%s: %s", schema, fs.Name, fmt.Sprintf(format, a...))
	}
	f := skema.Field{
		Name:        fs.Name,
		Nullable:    fs.Nullable,
		Title:       fs.Title,
		Description: fs.Description,
		Examples:    fs.Examples,
	}
	typ := fs.Type
	if typ == "" && fs.Schema != "" {
		typ = "object"
	}
	t, ok := skema.ParseFieldType(typ)
	if !ok {
		return fail("unknown type %q", fs.Type)
	}
	f.Type = t
	if fs.Schema != "" {
		if t != skema.TypeObject {
			return fail("schema reference on a %s field", t)
		}
		nested, err := b.build(fs.Schema, stack)
		if err != nil {
			return skema.Field{}, err
		}
		f.Schema = nested
	}

	if fs.Strict {
		f.Constraints = append(f.Constraints, skema.Strict())
	}
	if fs.MinLength != nil {
		f.Constraints = append(f.Constraints, skema.MinLen(*fs.MinLength))
	}
	if fs.MaxLength != nil {
		f.Constraints = append(f.Constraints, skema.MaxLen(*fs.MaxLength))
	}
	for _, bc := range []struct {
		v  *float64
		mk func(float64) skema.Constraint
	}{{fs.Gt, skema.Gt}, {fs.Ge, skema.Ge}, {fs.Lt, skema.Lt}, {fs.Le, skema.Le}} {
		if bc.v != nil {
			f.Constraints = append(f.Constraints, bc.mk(*bc.v))
		}
	}
	if fs.Pattern != "" {
		c, err := skema.Pattern(fs.Pattern)
		if err != nil {
			return fail("%v", err)
		}
		f.Constraints = append(f.Constraints, c)
	}
	switch fs.Format {
	case "":
	case "email":
		f.Constraints = append(f.Constraints, skema.FormatOf(skema.FormatEmail))
	case "url", "uri":
		f.Constraints = append(f.Constraints, skema.FormatOf(skema.FormatURL))
	default:
		return fail("unknown format %q", fs.Format)
	}
	if len(fs.Enum) > 0 {
		f.Constraints = append(f.Constraints, skema.OneOf(fs.Enum...))
	}

	if fs.Default != nil {
		var v any
		if err := fs.Default.Decode(&v); err != nil {
			return fail("default: %v", err)
		}
		f.Default, f.HasDefault = normalize(v), true
		// A nested default is validated against its schema up front.
		if m, ok := f.Default.(map[string]any); ok && f.Schema != nil {
			rec, err := skema.Validate(context.Background(), f.Schema, m)
			if err != nil {
				return fail("default: %v", err)
			}
			f.Default = rec
		}
	}
	return f, nil
}

func schemaOptions(d *Document) ([]skema.SchemaOption, error) {
	opts := []skema.SchemaOption{skema.WithDoc(d.Title, d.Description)}
	switch d.Unknown {
	case "", "strip":
		opts = append(opts, skema.WithUnknown(skema.UnknownStrip))
	case "strict":
		opts = append(opts, skema.WithUnknown(skema.UnknownStrict))
	default:
		return nil, fmt.Errorf("schemafile: %s: unknown policy %q", d.Name, d.Unknown)
	}
	for _, cs := range d.Computed {
		e, err := rules.Compile(cs.Expr)
		if err != nil {
			return nil, fmt.Errorf("schemafile: %s.%s: %w", d.Name, cs.Name, err)
		}
		opts = append(opts, skema.WithComputed(skema.Computed{
			Name:        cs.Name,
			Description: cs.Description,
			Fn:          computedFn(e),
		}))
	}
	for _, rs := range d.Rules {
		mv, err := rules.CEL(rs.Name, rs.Expr, rs.Message)
		if err != nil {
			return nil, fmt.Errorf("schemafile: %s: rule %s: %w", d.Name, rs.Name, err)
		}
		opts = append(opts, skema.WithModelValidators(mv))
	}
	return opts, nil
}

// computedFn evaluates e over the stored fields only, so computed fields
// cannot depend on each other. Evaluation errors yield nil.
func computedFn(e *rules.Expr) func(*skema.Record) any {
	return func(r *skema.Record) any {
		v, err := e.EvalRecord(r, true)
		if err != nil {
			return nil
		}
		return v
	}
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	}
	return v
}
