// Package dispatch turns decoded JSON-RPC requests into tool
// invocations.
//
// The pipeline for one request: protocol builtins (ping answers before
// the gate; initialize and tools/list after it), the auth gate, tool
// lookup, schema validation of the params, then invocation through the
// observe middleware, a concurrency bulkhead and the result cache.
// Failures map onto wire codes: a denial to CodeUnauthorized with the
// reason in the error data, an unknown method to CodeMethodNotFound,
// bad params to CodeInvalidParams naming the offending field, and a
// handler error or panic to CodeToolFailure. Notifications run the
// full pipeline but produce no response.
//
// The same Dispatch method serves every transport; transports tag
// their name into the context with WithTransport so invocation
// telemetry can tell them apart.
package dispatch
