package gateway

import "errors"

// Gateway errors.
var (
	// ErrRegistryRequired indicates Options.Registry was nil.
	ErrRegistryRequired = errors.New("gateway: registry is required")

	// ErrEnumeratorRequired indicates Options.Enumerator was nil.
	ErrEnumeratorRequired = errors.New("gateway: enumerator is required")

	// ErrMatcherRequired indicates Options.Matcher was nil.
	ErrMatcherRequired = errors.New("gateway: matcher is required")

	// ErrSourceRequired indicates Options.Source was nil.
	ErrSourceRequired = errors.New("gateway: command source is required")

	// ErrIterationFailed wraps a panic recovered at the iteration
	// boundary. The loop backs off and continues after it.
	ErrIterationFailed = errors.New("gateway: iteration failed")
)
