package rules

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	skema "github.com/reoring/skema"
)

var (
	envOnce sync.Once
	celEnv  *cel.Env
	envErr  error
)

// environment returns the shared CEL environment. Expressions are parsed but
// not type-checked: record fields are bound dynamically at evaluation time.
func environment() (*cel.Env, error) {
	envOnce.Do(func() {
		celEnv, envErr = cel.NewEnv(
			cel.CrossTypeNumericComparisons(true),
			ext.Strings(),
			ext.Math(),
		)
	})
	return celEnv, envErr
}

// Expr is a compiled Common Expression Language expression over a record.
// Every top-level field is bound as a variable of the same name; the whole
// record is also available as self. Nested records appear as maps.
type Expr struct {
	src string
	prg cel.Program
}

// Compile parses expr. Unknown identifiers are only reported at evaluation.
func Compile(expr string) (*Expr, error) {
	env, err := environment()
	if err != nil {
		return nil, fmt.Errorf("cel: environment: %w", err)
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("cel: parse %q: %w", expr, iss.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("cel: program %q: %w", expr, err)
	}
	return &Expr{src: expr, prg: prg}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Expr {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string { return e.src }

// Eval evaluates the expression with vars bound as variables and returns a
// plain Go value (lists as []any, maps as map[string]any).
func (e *Expr) Eval(vars map[string]any) (any, error) {
	out, _, err := e.prg.Eval(vars)
	if err != nil {
		return nil, fmt.Errorf("cel: eval %q: %w", e.src, err)
	}
	return native(out)
}

// EvalRecord evaluates the expression over r. Computed fields are bound
// unless excludeComputed is set.
func (e *Expr) EvalRecord(r *skema.Record, excludeComputed bool) (any, error) {
	var o skema.DumpOpt
	if excludeComputed {
		o.Exclude = r.Schema().ComputedNames()
	}
	return e.Eval(Vars(r.Dump(o)))
}

// Test evaluates the expression over r and requires a bool result.
func (e *Expr) Test(r *skema.Record) (bool, error) {
	v, err := e.EvalRecord(r, false)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("cel: %q returned %T, want bool", e.src, v)
	}
	return b, nil
}

// Vars binds every entry of m plus self for evaluation.
func Vars(m map[string]any) map[string]any {
	vars := make(map[string]any, len(m)+1)
	for k, v := range m {
		vars[k] = v
	}
	vars["self"] = m
	return vars
}

func native(v ref.Val) (any, error) {
	switch x := v.(type) {
	case types.Null:
		return nil, nil
	case traits.Mapper:
		out := map[string]any{}
		for it := x.Iterator(); it.HasNext() == types.True; {
			k := it.Next()
			e, err := native(x.Get(k))
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k.Value())] = e
		}
		return out, nil
	case traits.Lister:
		out := []any{}
		for it := x.Iterator(); it.HasNext() == types.True; {
			e, err := native(it.Next())
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case *types.Err:
		return nil, x
	}
	return v.Value(), nil
}

// CELCheck reports message at the record root when e evaluates to false. An
// evaluation error is reported as an issue too.
func CELCheck(e *Expr, message string) Check {
	if message == "" {
		message = fmt.Sprintf("rule %q failed", e.src)
	}
	return func(_ context.Context, r *skema.Record) skema.Issues {
		ok, err := e.Test(r)
		if err != nil {
			return skema.Issues{{Code: skema.CodeCustom, Message: err.Error(), Cause: err,
				Params: map[string]any{"expr": e.src}}}
		}
		if ok {
			return nil
		}
		return skema.Issues{{Code: skema.CodeCustom, Message: message, Params: map[string]any{"expr": e.src}}}
	}
}

// CEL compiles expr into a model validator that rejects records for which it
// evaluates to false.
func CEL(name, expr, message string) (skema.ModelValidator, error) {
	e, err := Compile(expr)
	if err != nil {
		return skema.ModelValidator{}, err
	}
	if name == "" {
		name = expr
	}
	return Model(name, CELCheck(e, message)), nil
}

// MustCEL is like CEL but panics on error.
func MustCEL(name, expr, message string) skema.ModelValidator {
	mv, err := CEL(name, expr, message)
	if err != nil {
		panic(err)
	}
	return mv
}
