package rules

import (
	"context"
	"slices"
	"strings"

	skema "github.com/reoring/skema"
)

// DomainPolicy overrides the allowed email domains for one validation when
// stored with skema.WithService.
type DomainPolicy struct {
	Domains []string
}

// AllowedEmailDomains returns an after-mode field validator that accepts only
// addresses whose domain (the part after the last '@', compared
// case-insensitively) is listed. A DomainPolicy service in the context
// replaces the list.
func AllowedEmailDomains(domains ...string) skema.FieldValidator {
	fixed := lowerAll(domains)
	return skema.FieldValidator{Name: "email_domain", Mode: skema.ModeAfter, Fn: func(ctx context.Context, v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		allowed := fixed
		if p, ok := skema.Service[DomainPolicy](ctx); ok {
			allowed = lowerAll(p.Domains)
		}
		domain := strings.ToLower(s[strings.LastIndexByte(s, '@')+1:])
		if slices.Contains(allowed, domain) {
			return v, nil
		}
		return nil, skema.Issues{{
			Code:    skema.CodeCustom,
			Message: "Not a valid domain",
			Params:  map[string]any{"domain": domain, "allowed": allowed},
		}}
	}}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = strings.ToLower(strings.TrimSpace(d))
	}
	return out
}
