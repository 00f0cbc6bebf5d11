// Package auth decides whether a request may reach a tool handler.
//
// The gateway never verifies credentials locally. In delegated mode every
// bearer token is introspected against the external authorization server
// and the verdict is cached, bounded, by token hash. In none mode the gate
// admits everything. The package is transport-agnostic; transports hand
// the dispatcher whatever headers they carry and the gate reads only the
// Authorization header.
package auth
