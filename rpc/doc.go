// Package rpc implements the JSON-RPC 2.0 envelope shared by every
// transport.
//
// It provides request/response types, the wire error codes the gateway
// emits, and a decoder that maps malformed input to protocol errors
// instead of failures. Request ids are kept as raw JSON so they round-trip
// byte-for-byte regardless of type.
package rpc
