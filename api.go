package skema

import "context"

// SafeValidate validates v, returning (nil, false) on validation error.
func SafeValidate(ctx context.Context, s *Schema, v any) (*Record, bool) {
	rec, err := Validate(ctx, s, v)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// Is returns true if v conforms to the schema s.
func Is(ctx context.Context, s *Schema, v any) bool {
	_, err := Validate(ctx, s, v)
	return err == nil
}

// MustValidate is like Validate but panics on failure. Intended for static
// fixtures and tests.
func MustValidate(ctx context.Context, s *Schema, v any) *Record {
	rec, err := Validate(ctx, s, v)
	if err != nil {
		panic(err)
	}
	return rec
}

// ---- Validation context options ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
)

// WithFailFast returns a child context that marks fail-fast validation.
// Validate sets it from ParseOpt; nested schemas and validators read it.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current validation should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}
