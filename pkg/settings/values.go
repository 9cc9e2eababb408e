package settings

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Values is the validated result of a schema construction. It is read-only.
type Values struct {
	names  []string
	values map[string]any
}

// Names returns the declared field names in declaration order.
func (v *Values) Names() []string {
	return slices.Clone(v.names)
}

// Lookup returns the coerced value of name. ok is false when the field is
// undeclared or optional and unset.
func (v *Values) Lookup(name string) (any, bool) {
	value, ok := v.values[name]
	if !ok || value == nil {
		return nil, false
	}
	if list, isList := value.([]string); isList {
		return slices.Clone(list), true
	}
	return value, true
}

// Get returns the coerced value of name, or nil.
func (v *Values) Get(name string) any {
	value, _ := v.Lookup(name)
	return value
}

// Map returns a copy of all values keyed by field name. Unset optional
// fields map to nil.
func (v *Values) Map() map[string]any {
	out := maps.Clone(v.values)
	for k, value := range out {
		if list, ok := value.([]string); ok {
			out[k] = slices.Clone(list)
		}
	}
	return out
}

// String returns a string field.
func (v *Values) String(name string) (string, error) {
	return typed[string](v, name)
}

// Int returns an integer field.
func (v *Values) Int(name string) (int, error) {
	return typed[int](v, name)
}

// Float returns a float field.
func (v *Values) Float(name string) (float64, error) {
	return typed[float64](v, name)
}

// Bool returns a boolean field.
func (v *Values) Bool(name string) (bool, error) {
	return typed[bool](v, name)
}

// Duration returns a duration field.
func (v *Values) Duration(name string) (time.Duration, error) {
	return typed[time.Duration](v, name)
}

// Strings returns a list field.
func (v *Values) Strings(name string) ([]string, error) {
	return typed[[]string](v, name)
}

func typed[T any](v *Values, name string) (T, error) {
	var zero T
	value, ok := v.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("setting %q is not set", name)
	}
	out, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("setting %q is %T, not %T", name, value, zero)
	}
	return out, nil
}
