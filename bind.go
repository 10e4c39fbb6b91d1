package skema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies the record (computed fields included) into out, which must be
// a pointer to a struct or map. Struct fields match by `skema:"name"` tag and
// otherwise by case-insensitive field name.
func (r *Record) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "skema",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("skema: decode %s: %w", r.schema.name, err)
	}
	if err := dec.Decode(r.Dump()); err != nil {
		return fmt.Errorf("skema: decode %s: %w", r.schema.name, err)
	}
	return nil
}

// Bind decodes the record into a new T.
func Bind[T any](r *Record) (T, error) {
	var out T
	err := r.Decode(&out)
	return out, err
}
