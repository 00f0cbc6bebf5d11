// Package tools holds the builtin tool set the gateway ships with.
//
// Each builtin is a registry.Tool constructor: Hello and CurrentTime
// are self-contained, WeatherForecast and BitcoinPrice call public
// APIs through a shared resilient WebClient, and the memory suite
// persists snippets through a memstore.Store. RegisterBuiltins wires
// the whole set into a registry at startup.
//
// Handlers return map[string]any result objects carrying a "status"
// field. A handler that cannot produce a result returns an error; the
// dispatcher reports it to the caller as a tool failure.
package tools
