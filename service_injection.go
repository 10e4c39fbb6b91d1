package skema

import (
	"context"
	"reflect"

	"github.com/reoring/skema/i18n"
)

// serviceSlot keys one service type in a context.
type serviceSlot[T any] struct{}

// WithService makes svc available to the field, model and input validators
// run under ctx. A later call for the same T shadows the earlier one.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceSlot[T]{}, svc)
}

// Service returns the T stored by WithService.
func Service[T any](ctx context.Context) (T, bool) {
	svc, ok := ctx.Value(serviceSlot[T]{}).(T)
	return svc, ok
}

// RequireService returns the T stored by WithService, or a
// dependency_unavailable issue naming the missing service type. The issue
// sits at the root path; Validate rebases it under the field being validated.
func RequireService[T any](ctx context.Context) (T, error) {
	if svc, ok := Service[T](ctx); ok {
		return svc, nil
	}
	var zero T
	name := reflect.TypeFor[T]().String()
	return zero, Issues{Root().Issue(CodeDependencyUnavailable,
		i18n.T(CodeDependencyUnavailable, map[string]string{"service": name}),
		"service", name)}
}
