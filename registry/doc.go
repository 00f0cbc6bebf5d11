// Package registry holds the gateway's tool catalog.
//
// Tools are registered during startup, the registry is frozen before the
// first request is served, and lookups are read-only for the rest of the
// process lifetime. Duplicate names are rejected at registration so a
// later tool can never shadow an earlier one.
package registry
