package settings

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrInvalidTarget is returned when the target is not a non-nil pointer to a struct.
	ErrInvalidTarget = errors.New("settings target must be a non-nil pointer to a struct")
	// ErrInvalidSchema is returned when a schema declaration is malformed.
	ErrInvalidSchema = errors.New("invalid settings schema")
)

// IsValidationError reports whether err came from the validation step, that
// is a missing required field or a value that could not be coerced.
func IsValidationError(err error) bool {
	var agg env.AggregateError
	return errors.As(err, &agg)
}

// MissingFields returns the keys of every required field that had no value.
func MissingFields(err error) []string {
	var missing []string
	for _, e := range validationErrors(err) {
		switch e := e.(type) {
		case env.EnvVarIsNotSetError:
			missing = append(missing, e.Key)
		case env.EmptyEnvVarError:
			missing = append(missing, e.Key)
		}
	}
	return missing
}

// CoercionFailures returns one message per value that could not be parsed
// into its declared type.
func CoercionFailures(err error) []string {
	var failures []string
	for _, e := range validationErrors(err) {
		switch e.(type) {
		case env.ParseError, env.NoParserError:
			failures = append(failures, e.Error())
		}
	}
	return failures
}

func validationErrors(err error) []error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return nil
	}
	return agg.Errors
}
