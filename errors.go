package main

import "fmt"

// Exit codes returned by run.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// ConfigError reports an invalid or conflicting configuration. It is always
// fatal and is raised before any discovery work starts.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// invalidOptionError wraps a flag parsing failure.
type invalidOptionError struct {
	err error
}

func (e *invalidOptionError) Error() string { return "invalid option: " + e.err.Error() }

func (e *invalidOptionError) Unwrap() error { return e.err }
