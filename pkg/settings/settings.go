package settings

import (
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// Value sources, reported in debug logs.
const (
	sourceEnvironment = "environment"
	sourceOverride    = "override"
	sourcePolicy      = "environment_policy"
)

// Construct builds a new T from overrides and the environment. T must be a
// struct type declaring its fields with caarlos0/env tags.
func Construct[T any](overrides map[string]string, opts ...Option) (T, error) {
	var out T
	if err := Load(&out, overrides, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Load populates target, a pointer to a struct, from overrides and the
// environment. An environment variable named exactly like a declared field
// replaces the override for that field. The overrides map is not modified.
//
// Validation errors are returned as produced by caarlos0/env.
func Load(target any, overrides map[string]string, opts ...Option) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	o := newOptions(opts)

	keys, err := declaredKeys(target, o)
	if err != nil {
		return err
	}

	data := inject(keys, overrides, o)
	return env.ParseWithOptions(target, parseOptions(data, o))
}

// Fields returns the declared field keys of target in declaration order.
func Fields(target any, opts ...Option) ([]string, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	return declaredKeys(target, newOptions(opts))
}

func checkTarget(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}
	return nil
}

func declaredKeys(target any, o options) ([]string, error) {
	params, err := env.GetFieldParamsWithOptions(target, parseOptions(nil, o))
	if err != nil {
		return nil, fmt.Errorf("inspect fields: %w", err)
	}

	keys := make([]string, 0, len(params))
	for _, p := range params {
		if p.Unset {
			return nil, fmt.Errorf("%w: field %q uses the unset option, which would modify the environment", ErrInvalidTarget, p.Key)
		}
		if p.Key == "" || slices.Contains(keys, p.Key) {
			continue
		}
		keys = append(keys, p.Key)
	}
	return keys, nil
}

func parseOptions(environment map[string]string, o options) env.Options {
	return env.Options{
		Environment:     environment,
		RequiredIfNoDef: o.requiredIfNoDef,
	}
}

// inject merges the environment into a copy of overrides for every declared key.
// Precedence: exact-name environment > override > prefix/case matched environment.
func inject(keys []string, overrides map[string]string, o options) map[string]string {
	environ := o.environ
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	data := make(map[string]string, len(overrides)+len(keys))
	maps.Copy(data, overrides)

	for _, key := range keys {
		if value, ok := environ[key]; ok {
			data[key] = value
			o.logger.Debug("field resolved", zap.String("field", key), zap.String("source", sourceEnvironment))
			continue
		}
		if _, ok := data[key]; ok {
			o.logger.Debug("field resolved", zap.String("field", key), zap.String("source", sourceOverride))
			continue
		}
		if name, value, ok := matchPolicy(environ, key, o); ok {
			data[key] = value
			o.logger.Debug("field resolved",
				zap.String("field", key),
				zap.String("source", sourcePolicy),
				zap.String("variable", name),
			)
		}
	}
	return data
}

// matchPolicy looks key up under the configured prefix. Without case
// insensitivity only the upper-cased prefix+key is tried.
func matchPolicy(environ map[string]string, key string, o options) (string, string, bool) {
	name := o.envPrefix + key

	if o.caseInsensitive {
		candidates := make([]string, 0, 1)
		for k := range environ {
			if strings.EqualFold(k, name) {
				candidates = append(candidates, k)
			}
		}
		if len(candidates) == 0 {
			return "", "", false
		}
		slices.Sort(candidates)
		return candidates[0], environ[candidates[0]], true
	}

	upper := strings.ToUpper(name)
	if value, ok := environ[upper]; ok {
		return upper, value, true
	}
	return "", "", false
}
