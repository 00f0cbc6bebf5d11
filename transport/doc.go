// Package transport carries JSON-RPC frames between clients and the
// dispatcher over stdio, server-sent events, or plain HTTP.
//
// All three transports share the same Handler and the same contract:
// Serve blocks until a fatal error or context cancellation, Shutdown
// drains gracefully and is safe to call more than once. Decode
// failures become -32700/-32600 responses on the wire; a bad frame
// never takes the process down.
package transport
