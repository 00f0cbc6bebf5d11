// Package observe provides observability primitives for the gateway.
//
// It is a pure instrumentation library: no dispatch, no transport, no I/O
// beyond exporter setup. The dispatcher wires the observer around tool
// invocations; transports log through it directly.
package observe
