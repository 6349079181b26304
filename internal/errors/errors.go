package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a settings error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// InvalidReferenceError is returned when a write-path operation is handed a
// value that is not a structurally valid secret reference. Reads on invalid
// references resolve to "absent" instead, since callers routinely probe
// unvalidated settings values; a write must fail loudly so a caller bug
// cannot silently drop a secret.
//
// The offending value is deliberately not carried: it may be a plaintext
// credential, and error text ends up in logs.
type InvalidReferenceError struct {
	Op   string
	Kind string
}

func (e InvalidReferenceError) Error() string {
	msg := "invalid secret reference"
	if e.Kind != "" {
		msg += " for " + e.Kind
	}
	if e.Op != "" {
		msg += fmt.Sprintf(" in %s", e.Op)
	}
	msg += "\n  💡 Expected the $UCPSECRET:<uuid>$ form"
	return msg
}
