// Package config resolves gateway configuration from layered sources.
//
// Four layers feed the resolver, lowest precedence first: built-in
// defaults, a YAML config file, TOOLGATE_* environment variables, and
// command-line flags. Precedence applies field by field: a layer that sets
// only the port overrides only the port. Validation runs once on the
// merged result, and a validation failure is the only error class that is
// fatal to the process.
package config
