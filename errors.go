package skema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	CodeUnknownKey  = "unknown_key"
	CodeCoercion    = "coercion_failed"
	// Constraint violations, one code per constraint kind.
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeGreaterThan   = "greater_than"
	CodeGreaterEqual  = "greater_than_equal"
	CodeLessThan      = "less_than"
	CodeLessEqual     = "less_than_equal"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	// Custom field/model validator rejections.
	CodeCustom = "custom"
	// Input decoding failures (malformed JSON/YAML, oversized bodies).
	CodeParseError = "parse_error"
	// Dependency temporary/unavailable errors (for mapping to 5xx at API layer)
	CodeDependencyUnavailable = "dependency_unavailable"
)

// Kind groups issue codes into the validation error taxonomy.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindMissingField
	KindTypeMismatch
	KindCoercionFailure
	KindConstraintViolation
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindMissingField:
		return "missing_field"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindCoercionFailure:
		return "coercion_failure"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// KindOf maps an issue code to its Kind.
func KindOf(code string) Kind {
	switch code {
	case CodeRequired:
		return KindMissingField
	case CodeInvalidType, CodeUnknownKey:
		return KindTypeMismatch
	case CodeCoercion:
		return KindCoercionFailure
	case CodeTooShort, CodeTooLong, CodeGreaterThan, CodeGreaterEqual, CodeLessThan,
		CodeLessEqual, CodePattern, CodeInvalidEnum, CodeInvalidFormat:
		return KindConstraintViolation
	case CodeCustom, CodeDependencyUnavailable:
		return KindCustom
	default:
		return KindUnknown
	}
}

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Dotted field path (for example: address.pin, allergies.2). Empty for the record itself.
	Code    string // One of the codes listed above.
	Message string
	// Params carries structured parameters (e.g., {"gt":0, "actual":-1})
	// for i18n and observability.
	Params map[string]any
	Cause  error // Optional: underlying error.
	// Rule optionally records the validator name that produced this issue.
	Rule string
}

// Kind reports the taxonomy bucket of the issue code.
func (it Issue) Kind() Kind { return KindOf(it.Code) }

// Pointer renders Path as a JSON Pointer (RFC 6901).
func (it Issue) Pointer() string { return ParsePath(it.Path).Pointer() }

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		p := it.Path
		if p == "" {
			p = "(root)"
		}
		// e.g. invalid_type at address.pin
		fmt.Fprintf(b, "%s at %s", it.Code, p)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByPath returns the issues reported exactly at path.
func (iss Issues) ByPath(path string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Path == path {
			out = append(out, it)
		}
	}
	return out
}

// Has reports whether an issue with the given path and code exists.
func (iss Issues) Has(path, code string) bool {
	for _, it := range iss {
		if it.Path == path && it.Code == code {
			return true
		}
	}
	return false
}

// Paths lists distinct issue paths in first-seen order.
func (iss Issues) Paths() []string {
	seen := make(map[string]struct{}, len(iss))
	var out []string
	for _, it := range iss {
		if _, ok := seen[it.Path]; ok {
			continue
		}
		seen[it.Path] = struct{}{}
		out = append(out, it.Path)
	}
	return out
}

// rebase returns copies of the issues with prefix prepended to every path.
func (iss Issues) rebase(prefix Path) Issues {
	if len(prefix.parts) == 0 {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		it.Path = prefix.Join(it.Path).String()
		out = append(out, it)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ErrInvalidSchema is wrapped by every schema construction error.
var ErrInvalidSchema = errors.New("skema: invalid schema")

func schemaErrorf(schema, field, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	if field == "" {
		return fmt.Errorf("%w: %s: %s", ErrInvalidSchema, schema, msg)
	}
	return fmt.Errorf("%w: %s.%s: %s", ErrInvalidSchema, schema, field, msg)
}
