// Package settings builds typed, validated settings values from the process
// environment and caller supplied overrides.
//
// Fields are declared either with caarlos0/env struct tags or with an explicit
// Schema. For every declared field the environment variable carrying exactly
// the field name is injected into the overrides before validation, so it
// always wins over a value passed by the caller. Fields the caller did not
// override may also be matched through an optional prefix and case-insensitive
// lookup. Defaults, required fields and type coercion are handled by
// github.com/caarlos0/env/v11 and its errors are returned unchanged.
package settings
