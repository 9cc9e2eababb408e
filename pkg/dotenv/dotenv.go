// Package dotenv reads .env files for settings construction. Parsing is done
// by github.com/joho/godotenv.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/joho/godotenv"
)

// DefaultFile is read when no path is given.
const DefaultFile = ".env"

// Load populates the process environment from the given files without
// overriding variables that are already set. With no paths it reads
// DefaultFile and tolerates its absence.
func Load(paths ...string) error {
	paths, optional := resolve(paths)
	if optional {
		if _, err := os.Stat(DefaultFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Read parses the given files into a map without touching the process
// environment. Later files win over earlier ones.
func Read(paths ...string) (map[string]string, error) {
	paths, optional := resolve(paths)
	out := make(map[string]string)
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read dotenv %s: %w", path, err)
		}
		maps.Copy(out, vars)
	}
	return out, nil
}

// Merge overlays base on top of file variables, so that variables already in
// base keep their values. Neither input is modified.
func Merge(base, file map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(file))
	maps.Copy(out, file)
	maps.Copy(out, base)
	return out
}

func resolve(paths []string) ([]string, bool) {
	if len(paths) == 0 {
		return []string{DefaultFile}, true
	}
	return paths, false
}
