package health

import "errors"

var (
	// ErrCheckFailed marks a result whose probe completed with a
	// definitive failure.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a result whose probe outlived the sweep
	// deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Check for a name nothing is
	// registered under.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
