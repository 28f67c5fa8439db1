package models

import (
	"fmt"
	"strings"
)

// NotFoundError reports a required file that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// FormatError reports a top-level shape mismatch (e.g. a JSON array where an
// object was expected, or a CSV missing a required column).
type FormatError struct {
	Path     string
	Expected string
	Got      string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// ParseError reports malformed syntax in an input file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports missing or invalid pipeline configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// EmptyResultError reports a join or enrichment that produced zero usable
// records. The orchestrating stage must treat it as fatal.
type EmptyResultError struct {
	Stage string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("stage %s produced no records", e.Stage)
}

// ValidationFailure reports that one or more hard checks failed. It carries
// every outcome of the run so a single failure surfaces all defects at once.
type ValidationFailure struct {
	Stage    string
	Outcomes []Outcome
}

func (e *ValidationFailure) Error() string {
	var failed []string
	for _, o := range e.Outcomes {
		if !o.Passed {
			failed = append(failed, fmt.Sprintf("%s (%s): %s", o.Check, o.Severity, o.Message))
		}
	}
	return fmt.Sprintf("validation failed for stage %s: %s", e.Stage, strings.Join(failed, "; "))
}
