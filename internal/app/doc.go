// Package app wires one run of the envsettings command: it reads .env files
// into an environment snapshot, loads the schema, constructs the settings and
// renders them. Keeping this out of the main package leaves main focused on
// CLI parsing and exit codes.
package app
