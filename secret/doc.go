// Package secret resolves secret-bearing configuration values.
//
// Two mechanisms are supported, applied in order:
//   - Strict environment expansion: ${VAR} fails resolution when VAR is
//     unset (see ExpandEnvStrict).
//   - Secret references: values of the form secretref:<provider>:<ref>
//     are resolved through a named Provider, either as the whole value or
//     inline inside a larger string.
//
// The gateway uses this for introspection client credentials so that a
// config file never has to hold a literal secret.
package secret
