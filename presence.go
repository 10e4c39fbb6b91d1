package skema

// Presence is the per-field bit flag recorded on every Record.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// DefaultOnly reports whether the value was materialized from a default and
// never supplied by the caller.
func (p Presence) DefaultOnly() bool {
	return p&PresenceDefaultApplied != 0 && p&PresenceSeen == 0
}

// PresenceMap maps dotted field paths to Presence flags.
type PresenceMap map[string]Presence

// Presence collects the flags of every stored field, descending into nested
// records. The root path "" is always marked seen.
func (r *Record) Presence() PresenceMap {
	pm := PresenceMap{"": PresenceSeen}
	r.collectPresence(Root(), pm)
	return pm
}

func (r *Record) collectPresence(base Path, pm PresenceMap) {
	for i, f := range r.schema.fields {
		p := base.Field(f.Name)
		pm[p.String()] = r.presence[i]
		if nested, ok := r.values[i].(*Record); ok && nested != nil {
			nested.collectPresence(p, pm)
		}
	}
}
