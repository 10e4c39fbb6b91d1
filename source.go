package skema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Source abstracts over encoded input documents.
type Source interface {
	// Decode returns the document as JSON-like values: map[string]any,
	// []any, string, bool, nil, json.Number (JSON) or int/float64 (YAML).
	Decode() (any, error)
	// Format names the encoding ("json" or "yaml").
	Format() string
}

type jsonSource struct{ r io.Reader }

// JSONBytes returns a Source over a JSON document. Numbers decode as
// json.Number so integers keep full precision.
func JSONBytes(b []byte) Source { return jsonSource{r: bytes.NewReader(b)} }

// JSONReader returns a Source that reads one JSON document from r.
func JSONReader(r io.Reader) Source { return jsonSource{r: r} }

func (jsonSource) Format() string { return "json" }

func (s jsonSource) Decode() (any, error) {
	dec := json.NewDecoder(s.r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

type yamlSource struct{ r io.Reader }

// YAMLBytes returns a Source over a single YAML document.
func YAMLBytes(b []byte) Source { return yamlSource{r: bytes.NewReader(b)} }

// YAMLReader returns a Source that reads the first YAML document from r.
func YAMLReader(r io.Reader) Source { return yamlSource{r: r} }

func (yamlSource) Format() string { return "yaml" }

func (s yamlSource) Decode() (any, error) {
	var v any
	if err := yaml.NewDecoder(s.r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	return yamlNormalizeValue(v), nil
}

// yamlNormalizeValue converts YAML-decoded values (which may contain map[any]any)
// into JSON-like values recursively.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	default:
		return v
	}
}

// ParseFrom decodes src and validates the result against s. Decoding failures
// are reported as a single parse_error issue.
func ParseFrom(ctx context.Context, s *Schema, src Source, opts ...ParseOpt) (*Record, error) {
	v, err := src.Decode()
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: fmt.Sprintf("%s: %v", src.Format(), err), Cause: err}}
	}
	return Validate(ctx, s, v, opts...)
}
