package config

import "fmt"

// Error reports an invalid or unresolvable configuration value. It is the
// only error in the gateway that terminates the process: everything after
// startup maps to a protocol response instead.
type Error struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Errorf builds an Error with a formatted reason.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}
