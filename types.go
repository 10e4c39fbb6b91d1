package skema

// FieldType is the declared type of a field.
type FieldType uint8

const (
	TypeString     FieldType = iota + 1 // Stored as string.
	TypeInt                             // Stored as int64.
	TypeFloat                           // Stored as float64.
	TypeBool                            // Stored as bool.
	TypeStringList                      // Stored as []string.
	TypeStringMap                       // Stored as map[string]string.
	TypeObject                          // Stored as *Record of the nested schema.
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeStringList:
		return "list"
	case TypeStringMap:
		return "map"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseFieldType resolves the names printed by FieldType.String.
func ParseFieldType(s string) (FieldType, bool) {
	switch s {
	case "string", "str":
		return TypeString, true
	case "int", "integer":
		return TypeInt, true
	case "float", "number":
		return TypeFloat, true
	case "bool", "boolean":
		return TypeBool, true
	case "list", "[]string":
		return TypeStringList, true
	case "map", "dict", "map[string]string":
		return TypeStringMap, true
	case "object":
		return TypeObject, true
	}
	return 0, false
}

// UnknownPolicy controls how unknown keys are handled.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Drop unknown keys.
	UnknownStrict                      // Reject unknown keys with an error.
)

func (p UnknownPolicy) String() string {
	if p == UnknownStrict {
		return "strict"
	}
	return "strip"
}

// Mode selects when a validator runs relative to coercion.
type Mode uint8

const (
	ModeAfter  Mode = iota // On the coerced value (or the assembled Record).
	ModeBefore             // On the raw input value (or the raw input mapping).
)

// ParseOpt bundles validation options.
type ParseOpt struct {
	// FailFast stops at the first issue instead of collecting all of them.
	FailFast bool
}

// DumpOpt selects which fields a serialization emits.
type DumpOpt struct {
	// Include restricts output to these fields. Dotted names select nested fields.
	Include []string
	// Exclude drops these fields. Dotted names drop nested fields.
	Exclude []string
	// ExcludeUnset drops fields that were filled from a default.
	ExcludeUnset bool
	// ExcludeDefaults drops fields whose value equals the declared default.
	ExcludeDefaults bool
}

func lastParseOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}
