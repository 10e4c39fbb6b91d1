package skema

import (
	"bytes"
	"reflect"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// entry is one emitted key/value pair. Nested records become []entry so that
// every output format keeps declaration order.
type entry struct {
	key string
	val any
}

// pathSet is a compiled set of dotted field names. A nil child means the whole
// subtree below that name.
type pathSet map[string]pathSet

func compilePaths(paths []string) pathSet {
	if len(paths) == 0 {
		return nil
	}
	root := pathSet{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		cur := root
		parts := ParsePath(p).parts
		for i, part := range parts {
			next, seen := cur[part]
			if i == len(parts)-1 {
				cur[part] = nil
				break
			}
			if seen && next == nil {
				break
			}
			if !seen {
				next = pathSet{}
				cur[part] = next
			}
			cur = next
		}
	}
	return root
}

// selectField applies include/exclude sets to one name and returns the sets
// for its children.
func selectField(name string, inc, exc pathSet) (pathSet, pathSet, bool) {
	var subInc, subExc pathSet
	if inc != nil {
		sub, ok := inc[name]
		if !ok {
			return nil, nil, false
		}
		subInc = sub
	}
	if exc != nil {
		if sub, ok := exc[name]; ok {
			if sub == nil {
				return nil, nil, false
			}
			subExc = sub
		}
	}
	return subInc, subExc, true
}

func mergeDumpOpts(opts []DumpOpt) DumpOpt {
	var o DumpOpt
	for _, x := range opts {
		o.Include = append(o.Include, x.Include...)
		o.Exclude = append(o.Exclude, x.Exclude...)
		o.ExcludeUnset = o.ExcludeUnset || x.ExcludeUnset
		o.ExcludeDefaults = o.ExcludeDefaults || x.ExcludeDefaults
	}
	return o
}

func (r *Record) entries(o *DumpOpt, inc, exc pathSet) []entry {
	out := make([]entry, 0, len(r.schema.fields)+len(r.schema.computed))
	for i := range r.schema.fields {
		f := &r.schema.fields[i]
		subInc, subExc, ok := selectField(f.Name, inc, exc)
		if !ok {
			continue
		}
		if o.ExcludeUnset && r.presence[i].DefaultOnly() {
			continue
		}
		v := r.values[i]
		if o.ExcludeDefaults && f.HasDefault && sameValue(v, f.Default) {
			continue
		}
		if nested, ok := v.(*Record); ok {
			out = append(out, entry{key: f.Name, val: nested.entries(o, subInc, subExc)})
			continue
		}
		out = append(out, entry{key: f.Name, val: copyValue(v)})
	}
	for i, c := range r.schema.computed {
		if _, _, ok := selectField(c.Name, inc, exc); !ok {
			continue
		}
		v := r.computedValue(i)
		if nested, ok := v.(*Record); ok {
			v = nested.entries(&DumpOpt{}, nil, nil)
		}
		out = append(out, entry{key: c.Name, val: v})
	}
	return out
}

func sameValue(a, b any) bool {
	if ra, ok := a.(*Record); ok {
		rb, ok := b.(*Record)
		return ok && ra.Equal(rb)
	}
	return reflect.DeepEqual(a, b)
}

// Dump converts the record into a plain mapping. Nested records become
// map[string]any; computed fields are included. Options are merged.
func (r *Record) Dump(opts ...DumpOpt) map[string]any {
	o := mergeDumpOpts(opts)
	return entriesToMap(r.entries(&o, compilePaths(o.Include), compilePaths(o.Exclude)))
}

func entriesToMap(es []entry) map[string]any {
	m := make(map[string]any, len(es))
	for _, e := range es {
		if sub, ok := e.val.([]entry); ok {
			m[e.key] = entriesToMap(sub)
			continue
		}
		m[e.key] = e.val
	}
	return m
}

// DumpJSON renders the record as a JSON object with keys in declaration order
// (computed fields last).
func (r *Record) DumpJSON(opts ...DumpOpt) ([]byte, error) {
	o := mergeDumpOpts(opts)
	buf := &bytes.Buffer{}
	if err := writeJSON(buf, r.entries(&o, compilePaths(o.Include), compilePaths(o.Exclude))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, es []entry) error {
	buf.WriteByte('{')
	for i, e := range es {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if sub, ok := e.val.([]entry); ok {
			if err := writeJSON(buf, sub); err != nil {
				return err
			}
			continue
		}
		v, err := json.Marshal(e.val)
		if err != nil {
			return err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// DumpYAML renders the record as a YAML mapping with keys in declaration order.
func (r *Record) DumpYAML(opts ...DumpOpt) ([]byte, error) {
	o := mergeDumpOpts(opts)
	n, err := yamlNode(r.entries(&o, compilePaths(o.Include), compilePaths(o.Exclude)))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func yamlNode(es []entry) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range es {
		k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.key}
		var v *yaml.Node
		if sub, ok := e.val.([]entry); ok {
			var err error
			if v, err = yamlNode(sub); err != nil {
				return nil, err
			}
		} else {
			v = &yaml.Node{}
			if err := v.Encode(e.val); err != nil {
				return nil, err
			}
		}
		n.Content = append(n.Content, k, v)
	}
	return n, nil
}
