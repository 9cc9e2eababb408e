package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SchemaFile is the YAML representation of a schema together with the
// name-matching policy it expects.
type SchemaFile struct {
	Prefix          string      `yaml:"prefix"`
	CaseInsensitive bool        `yaml:"case_insensitive"`
	Fields          []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Default     *string `yaml:"default"`
	Optional    bool    `yaml:"optional"`
	Description string  `yaml:"description"`
}

// LoadSchema reads and parses a YAML schema file.
func LoadSchema(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema parses a YAML schema document and validates its fields.
// A missing type defaults to string.
func ParseSchema(data []byte) (*SchemaFile, error) {
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schema YAML: %w", err)
	}
	if err := file.Schema().Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Schema converts the file into a Schema.
func (f *SchemaFile) Schema() *Schema {
	s := NewSchema()
	for _, yf := range f.Fields {
		kind := Kind(yf.Type)
		if kind == "" {
			kind = KindString
		}
		s.fields = append(s.fields, Field{
			Name:        yf.Name,
			Kind:        kind,
			Default:     yf.Default,
			Optional:    yf.Optional,
			Description: yf.Description,
		})
	}
	return s
}

// Options returns the name-matching policy declared by the file.
func (f *SchemaFile) Options() []Option {
	return []Option{
		WithEnvPrefix(f.Prefix),
		WithCaseInsensitive(f.CaseInsensitive),
	}
}
