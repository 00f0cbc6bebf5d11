package rpc

import "fmt"

// Wire error codes. The -32700..-32600 range follows the JSON-RPC 2.0
// specification; -32000 and -32001 are the gateway's server-defined codes.
const (
	// CodeParse indicates the payload was not valid JSON.
	CodeParse = -32700

	// CodeInvalidRequest indicates valid JSON that is not a valid request
	// object (wrong version, missing method, wrong shape).
	CodeInvalidRequest = -32600

	// CodeMethodNotFound indicates the named tool is not registered.
	CodeMethodNotFound = -32601

	// CodeInvalidParams indicates the params failed schema validation.
	CodeInvalidParams = -32602

	// CodeInternal indicates a fault inside the gateway itself.
	CodeInternal = -32603

	// CodeToolFailure indicates the tool handler returned an error or
	// panicked. Handler failures always surface here, never as a crash.
	CodeToolFailure = -32000

	// CodeUnauthorized indicates the auth gate denied the request. The
	// error data carries the denial reason.
	CodeUnauthorized = -32001
)

// Error is the wire error object carried inside a Response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc %d: %s", e.Code, e.Message)
}

// NewError builds a wire error with the given code and message.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf builds a wire error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData returns a copy of the error carrying structured data.
func (e *Error) WithData(data any) *Error {
	clone := *e
	clone.Data = data
	return &clone
}
