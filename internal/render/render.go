// Package render encodes constructed settings for output.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/envsettings/pkg/settings"
)

// Supported output formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatDotenv = "dotenv"
)

// ErrUnknownFormat is returned for formats other than json, yaml and dotenv.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatDotenv}
}

// Write encodes values to w in the requested format.
func Write(w io.Writer, format string, values *settings.Values) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plain(values)); err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(orderedNode(values)); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
	case FormatDotenv:
		out, err := godotenv.Marshal(dotenvMap(values))
		if err != nil {
			return fmt.Errorf("encode dotenv: %w", err)
		}
		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return fmt.Errorf("write dotenv: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// plain returns values with durations and non-finite floats rendered as
// strings, which JSON cannot represent otherwise.
func plain(values *settings.Values) map[string]any {
	out := values.Map()
	for k, v := range out {
		switch v := v.(type) {
		case time.Duration:
			out[k] = v.String()
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				out[k] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
	}
	return out
}

// orderedNode keeps declaration order in YAML output.
func orderedNode(values *settings.Values) *yaml.Node {
	m := plain(values)
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range values.Names() {
		var valueNode yaml.Node
		if err := valueNode.Encode(m[name]); err != nil {
			valueNode = yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(m[name])}
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&valueNode,
		)
	}
	return node
}

// dotenvMap flattens values to strings. Unset optional fields are omitted.
func dotenvMap(values *settings.Values) map[string]string {
	out := make(map[string]string)
	for name, v := range plain(values) {
		switch v := v.(type) {
		case nil:
			continue
		case string:
			out[name] = v
		case float64:
			out[name] = strconv.FormatFloat(v, 'g', -1, 64)
		case []string:
			out[name] = strings.Join(v, ",")
		default:
			out[name] = fmt.Sprint(v)
		}
	}
	return out
}
