// Package cache provides result caching for tool invocations.
//
// It defines a Cache interface with an in-memory implementation,
// deterministic key derivation from tool name and arguments, and TTL
// policies that distinguish read-only tools from mutating ones.
package cache
