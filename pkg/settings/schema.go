package settings

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"
)

// Kind is the declared semantic type of a schema field.
type Kind string

// Supported field kinds.
const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindDuration Kind = "duration"
	KindStrings  Kind = "strings"
)

var kindTypes = map[Kind]reflect.Type{
	KindString:   reflect.TypeFor[string](),
	KindInt:      reflect.TypeFor[int](),
	KindFloat:    reflect.TypeFor[float64](),
	KindBool:     reflect.TypeFor[bool](),
	KindDuration: reflect.TypeFor[time.Duration](),
	KindStrings:  reflect.TypeFor[[]string](),
}

// Field declares one named setting.
type Field struct {
	Name        string
	Kind        Kind
	Default     *string
	Optional    bool
	Description string
}

// Required reports whether construction fails when the field has no value.
func (f Field) Required() bool {
	return f.Default == nil && !f.Optional
}

// FieldOption adjusts a field declared through the Schema builder.
type FieldOption func(*Field)

// Default sets the raw default value, parsed like any environment value.
func Default(value string) FieldOption {
	return func(f *Field) {
		f.Default = &value
	}
}

// Optional lets the field stay unset instead of failing construction.
func Optional() FieldOption {
	return func(f *Field) {
		f.Optional = true
	}
}

// Describe attaches a human readable description.
func Describe(text string) FieldOption {
	return func(f *Field) {
		f.Description = text
	}
}

// Schema is an explicit, ordered list of field declarations.
type Schema struct {
	fields []Field
}

// NewSchema returns an empty schema.
func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: append([]Field(nil), fields...)}
}

// Add appends a field declaration and returns the schema for chaining.
func (s *Schema) Add(name string, kind Kind, opts ...FieldOption) *Schema {
	f := Field{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(&f)
	}
	s.fields = append(s.fields, f)
	return s
}

// String declares a string field.
func (s *Schema) String(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindString, opts...)
}

// Int declares an integer field.
func (s *Schema) Int(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindInt, opts...)
}

// Float declares a float field.
func (s *Schema) Float(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindFloat, opts...)
}

// Bool declares a boolean field.
func (s *Schema) Bool(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindBool, opts...)
}

// Duration declares a time.Duration field.
func (s *Schema) Duration(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindDuration, opts...)
}

// Strings declares a comma separated list field.
func (s *Schema) Strings(name string, opts ...FieldOption) *Schema {
	return s.Add(name, KindStrings, opts...)
}

// Fields returns a copy of the declarations.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Validate checks every declaration and reports all problems at once.
func (s *Schema) Validate() error {
	var errs error
	seen := make(map[string]struct{}, len(s.fields))
	for i, f := range s.fields {
		if strings.TrimSpace(f.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("field %d: name is empty", i))
			continue
		}
		if strings.ContainsAny(f.Name, "=,\x00") {
			errs = multierr.Append(errs, fmt.Errorf("field %q: name contains a reserved character", f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("field %q: declared more than once", f.Name))
		}
		seen[f.Name] = struct{}{}
		if _, ok := kindTypes[f.Kind]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("field %q: unknown type %q", f.Name, f.Kind))
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchema, errs)
	}
	return nil
}

// Construct validates the schema, then builds Values from overrides and the
// environment following the same rules as Load.
func (s *Schema) Construct(overrides map[string]string, opts ...Option) (*Values, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	target := reflect.New(s.structType())
	if err := Load(target.Interface(), overrides, opts...); err != nil {
		return nil, err
	}
	return s.values(target.Elem()), nil
}

// structType materialises the schema as a struct carrying caarlos0/env tags.
// Optional fields without a default are pointers so that absence stays visible.
func (s *Schema) structType() reflect.Type {
	fields := make([]reflect.StructField, 0, len(s.fields))
	for i, f := range s.fields {
		typ := kindTypes[f.Kind]
		if f.Optional && f.Default == nil {
			typ = reflect.PointerTo(typ)
		}

		envTag := f.Name
		if f.Required() {
			envTag += ",required"
		}
		tag := "env:" + strconv.Quote(envTag)
		if f.Default != nil {
			tag += " envDefault:" + strconv.Quote(*f.Default)
		}

		fields = append(fields, reflect.StructField{
			Name: structFieldName(i, f.Name),
			Type: typ,
			Tag:  reflect.StructTag(tag),
		})
	}
	return reflect.StructOf(fields)
}

func (s *Schema) values(v reflect.Value) *Values {
	out := &Values{
		names:  make([]string, 0, len(s.fields)),
		values: make(map[string]any, len(s.fields)),
	}
	for i, f := range s.fields {
		field := v.Field(i)
		var value any
		switch {
		case field.Kind() != reflect.Pointer:
			value = field.Interface()
		case !field.IsNil():
			value = field.Elem().Interface()
		}
		out.names = append(out.names, f.Name)
		out.values[f.Name] = value
	}
	return out
}

// structFieldName derives an exported Go identifier so coercion errors still
// point at the declared name.
func structFieldName(i int, name string) string {
	var b strings.Builder
	b.WriteString("F")
	b.WriteString(strconv.Itoa(i))
	b.WriteByte('_')
	for _, r := range name {
		if r < utf8.RuneSelf && (r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
