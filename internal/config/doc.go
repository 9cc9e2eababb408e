// Package config loads the envsettings command configuration from multiple
// sources (YAML files, ENVSETTINGS_* environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
package config
