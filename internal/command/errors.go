package command

import "errors"

// Domain errors for the command package.
var (
	// ErrInvalidURL is returned when the client is created without an
	// endpoint URL.
	ErrInvalidURL = errors.New("command: url is required")

	// ErrRequestFailed wraps transport-level poll failures (timeout,
	// connection refused, TLS or DNS errors).
	ErrRequestFailed = errors.New("command: request failed")
)
