package models

import (
	"fmt"
	"strings"
)

// ConfigError means no usable connection target is configured.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ConnectionError covers pool exhaustion, unreachable hosts and rejected credentials.
// It is never retried automatically.
type ConnectionError struct {
	Instance string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %q failed: %v", e.Instance, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failed or malformed query, or a result with an unexpected shape.
type QueryError struct {
	Field string
	Msg   string
	Err   error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString("query error")
	if e.Field != "" {
		b.WriteString(" [" + e.Field + "]")
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

// FilterValidationError rejects filter input before any query is executed.
type FilterValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FilterValidationError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q: %s", e.Field, e.Value, e.Reason)
}
