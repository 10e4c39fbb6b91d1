package skema

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/reoring/skema/i18n"
)

// ConstraintKind identifies a constraint.
type ConstraintKind uint8

const (
	ConstraintMinLen ConstraintKind = iota + 1
	ConstraintMaxLen
	ConstraintGt
	ConstraintGe
	ConstraintLt
	ConstraintLe
	ConstraintPattern
	ConstraintStrict
	ConstraintEnum
	ConstraintFormat
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintMinLen:
		return "min_length"
	case ConstraintMaxLen:
		return "max_length"
	case ConstraintGt:
		return "gt"
	case ConstraintGe:
		return "ge"
	case ConstraintLt:
		return "lt"
	case ConstraintLe:
		return "le"
	case ConstraintPattern:
		return "pattern"
	case ConstraintStrict:
		return "strict"
	case ConstraintEnum:
		return "enum"
	case ConstraintFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Format names a well-known string format.
type Format string

const (
	FormatEmail Format = "email"
	FormatURL   Format = "url"
)

// Constraint is a single check attached to one field. Use the constructors
// below; the zero value is invalid.
type Constraint struct {
	Kind    ConstraintKind
	Len     int            // MinLen, MaxLen
	Bound   float64        // Gt, Ge, Lt, Le
	Pattern *regexp.Regexp // Pattern
	Values  []any          // Enum, normalized to the field type at build time
	Format  Format         // Format
}

func MinLen(n int) Constraint      { return Constraint{Kind: ConstraintMinLen, Len: n} }
func MaxLen(n int) Constraint      { return Constraint{Kind: ConstraintMaxLen, Len: n} }
func Gt(x float64) Constraint      { return Constraint{Kind: ConstraintGt, Bound: x} }
func Ge(x float64) Constraint      { return Constraint{Kind: ConstraintGe, Bound: x} }
func Lt(x float64) Constraint      { return Constraint{Kind: ConstraintLt, Bound: x} }
func Le(x float64) Constraint      { return Constraint{Kind: ConstraintLe, Bound: x} }
func Strict() Constraint           { return Constraint{Kind: ConstraintStrict} }
func OneOf(vals ...any) Constraint { return Constraint{Kind: ConstraintEnum, Values: vals} }
func FormatOf(f Format) Constraint { return Constraint{Kind: ConstraintFormat, Format: f} }

// Pattern compiles expr (RE2 syntax) into a pattern constraint. Strings must
// match somewhere; anchor the expression to require a full match.
func Pattern(expr string) (Constraint, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Constraint{}, fmt.Errorf("%w: pattern %q: %v", ErrInvalidSchema, expr, err)
	}
	return Constraint{Kind: ConstraintPattern, Pattern: re}, nil
}

// MustPattern is like Pattern but panics on an invalid expression.
func MustPattern(expr string) Constraint {
	c, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// appliesTo reports whether the constraint may be attached to a field of type t.
func (c Constraint) appliesTo(t FieldType) bool {
	switch c.Kind {
	case ConstraintMinLen, ConstraintMaxLen:
		return t == TypeString || t == TypeStringList || t == TypeStringMap
	case ConstraintGt, ConstraintGe, ConstraintLt, ConstraintLe:
		return t == TypeInt || t == TypeFloat
	case ConstraintPattern, ConstraintFormat:
		return t == TypeString
	case ConstraintEnum:
		return t == TypeString || t == TypeInt || t == TypeFloat || t == TypeBool
	case ConstraintStrict:
		return t != TypeObject
	}
	return false
}

// constraintCheck returns nil when v satisfies c. The returned Issue has no path.
type constraintCheck func(c Constraint, v any) *Issue

var constraintChecks = map[ConstraintKind]constraintCheck{
	ConstraintMinLen: func(c Constraint, v any) *Issue {
		n, unit := measure(v)
		if n >= c.Len {
			return nil
		}
		return newIssue(CodeTooShort, "min_length", c.Len, "actual_length", n, "unit", unit)
	},
	ConstraintMaxLen: func(c Constraint, v any) *Issue {
		n, unit := measure(v)
		if n <= c.Len {
			return nil
		}
		return newIssue(CodeTooLong, "max_length", c.Len, "actual_length", n, "unit", unit)
	},
	ConstraintGt: func(c Constraint, v any) *Issue {
		if compareBound(v, c.Bound) > 0 {
			return nil
		}
		return newIssue(CodeGreaterThan, "gt", fmtBound(c.Bound), "actual", v)
	},
	ConstraintGe: func(c Constraint, v any) *Issue {
		if compareBound(v, c.Bound) >= 0 {
			return nil
		}
		return newIssue(CodeGreaterEqual, "ge", fmtBound(c.Bound), "actual", v)
	},
	ConstraintLt: func(c Constraint, v any) *Issue {
		if compareBound(v, c.Bound) < 0 {
			return nil
		}
		return newIssue(CodeLessThan, "lt", fmtBound(c.Bound), "actual", v)
	},
	ConstraintLe: func(c Constraint, v any) *Issue {
		if compareBound(v, c.Bound) <= 0 {
			return nil
		}
		return newIssue(CodeLessEqual, "le", fmtBound(c.Bound), "actual", v)
	},
	ConstraintPattern: func(c Constraint, v any) *Issue {
		if s, _ := v.(string); c.Pattern.MatchString(s) {
			return nil
		}
		return newIssue(CodePattern, "pattern", c.Pattern.String())
	},
	// Strictness is enforced during coercion.
	ConstraintStrict: func(Constraint, any) *Issue { return nil },
	ConstraintEnum: func(c Constraint, v any) *Issue {
		for _, want := range c.Values {
			if want == v {
				return nil
			}
		}
		return newIssue(CodeInvalidEnum, "expected", enumList(c.Values), "actual", v)
	},
	ConstraintFormat: func(c Constraint, v any) *Issue {
		s, _ := v.(string)
		ok := false
		switch c.Format {
		case FormatEmail:
			ok = isEmail(s)
		case FormatURL:
			ok = isURL(s)
		}
		if ok {
			return nil
		}
		return newIssue(CodeInvalidFormat, "format", string(c.Format))
	},
}

func newIssue(code string, kv ...any) *Issue {
	params := make(map[string]any, len(kv)/2)
	data := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		params[k] = kv[i+1]
		data[k] = fmt.Sprint(kv[i+1])
	}
	return &Issue{Code: code, Message: i18n.T(code, data), Params: params}
}

// measure counts runes for strings and entries for containers.
func measure(v any) (int, string) {
	switch x := v.(type) {
	case string:
		return utf8.RuneCountInString(x), "characters"
	case []string:
		return len(x), "items"
	case map[string]string:
		return len(x), "entries"
	}
	return 0, ""
}

// compareBound compares a stored numeric value against a bound, using integer
// arithmetic when both sides are integral.
func compareBound(v any, bound float64) int {
	switch n := v.(type) {
	case int64:
		if bound == math.Trunc(bound) && bound >= math.MinInt64 && bound < math.MaxInt64 {
			b := int64(bound)
			switch {
			case n < b:
				return -1
			case n > b:
				return 1
			}
			return 0
		}
		return cmpFloat(float64(n), bound)
	case float64:
		return cmpFloat(n, bound)
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func fmtBound(b float64) string { return strconv.FormatFloat(b, 'f', -1, 64) }

func enumList(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			parts[i] = "'" + s + "'"
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}

func isEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func isURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
