// Package coerce holds the explicit conversion rules from decoded input values
// to the stored representation of each field type.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Failure classifies why a conversion did not succeed.
type Failure uint8

const (
	// Mismatch means the input kind can never convert to the target type.
	Mismatch Failure = iota + 1
	// Unparseable means the input kind is accepted but its content is not.
	Unparseable
)

// Error describes a failed conversion. Key is set for container elements:
// the index for sequences and the entry key for mappings.
type Error struct {
	Failure  Failure
	Expected string
	Got      string
	Key      string
	Detail   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("expected %s, got %s: %s", e.Expected, e.Got, e.Detail)
	}
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Got)
}

func mismatch(expected string, v any) *Error {
	return &Error{Failure: Mismatch, Expected: expected, Got: KindName(v)}
}

func unparseable(expected string, v any, detail string) *Error {
	return &Error{Failure: Unparseable, Expected: expected, Got: KindName(v), Detail: detail}
}

// KindName names the dynamic kind of a decoded value for messages.
func KindName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		return "number"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "float"
	case []any, []string:
		return "list"
	case map[string]any, map[string]string:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// String accepts only strings.
func String(v any) (string, *Error) {
	s, ok := v.(string)
	if !ok {
		return "", mismatch("string", v)
	}
	return s, nil
}

// Bool accepts only booleans.
func Bool(v any) (bool, *Error) {
	b, ok := v.(bool)
	if !ok {
		return false, mismatch("bool", v)
	}
	return b, nil
}

// Int converts to int64. Lax mode additionally accepts integral floats,
// integral json.Number literals written with a fraction or exponent, and
// strings holding a base-10 integer. Strict mode accepts Go integers and
// integral json.Number literals only.
func Int(v any, strict bool) (int64, *Error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return uintToInt(uint64(n), v)
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return uintToInt(n, v)
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return i, nil
		}
		if strict {
			return 0, unparseable("int", v, "not an integer literal")
		}
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, unparseable("int", v, err.Error())
		}
		return floatToInt(f, v)
	case float32:
		if strict {
			return 0, mismatch("int", v)
		}
		return floatToInt(float64(n), v)
	case float64:
		if strict {
			return 0, mismatch("int", v)
		}
		return floatToInt(n, v)
	case string:
		if strict {
			return 0, mismatch("int", v)
		}
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, unparseable("int", v, fmt.Sprintf("unable to parse %q as an integer", n))
		}
		return i, nil
	default:
		return 0, mismatch("int", v)
	}
}

func uintToInt(u uint64, v any) (int64, *Error) {
	if u > math.MaxInt64 {
		return 0, unparseable("int", v, "out of range")
	}
	return int64(u), nil
}

func floatToInt(f float64, v any) (int64, *Error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, unparseable("int", v, "has a fractional part")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, unparseable("int", v, "out of range")
	}
	return int64(f), nil
}

// Float converts to float64. Numbers of any Go kind and json.Number are
// accepted in both modes; strings only in lax mode.
func Float(v any, strict bool) (float64, *Error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return 0, unparseable("float", v, err.Error())
		}
		return f, nil
	case string:
		if strict {
			return 0, mismatch("float", v)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, unparseable("float", v, fmt.Sprintf("unable to parse %q as a number", n))
		}
		return f, nil
	default:
		return 0, mismatch("float", v)
	}
}

// StringList accepts []string or a []any whose elements are all strings.
// The result is always a fresh slice.
func StringList(v any) ([]string, *Error) {
	switch l := v.(type) {
	case []string:
		return append([]string{}, l...), nil
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			s, ok := e.(string)
			if !ok {
				err := mismatch("string", e)
				err.Key = strconv.Itoa(i)
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, mismatch("list", v)
	}
}

// StringMap accepts map[string]string or a map[string]any whose values are all
// strings. The result is always a fresh map. Element errors are reported for
// the lexically smallest offending key so that output is deterministic.
func StringMap(v any) (map[string]string, *Error) {
	switch m := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, nil
	case map[string]any:
		out := make(map[string]string, len(m))
		var bad *Error
		for k, e := range m {
			s, ok := e.(string)
			if !ok {
				if bad == nil || k < bad.Key {
					bad = mismatch("string", e)
					bad.Key = k
				}
				continue
			}
			out[k] = s
		}
		if bad != nil {
			return nil, bad
		}
		return out, nil
	default:
		return nil, mismatch("map", v)
	}
}
