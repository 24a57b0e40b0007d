package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrOpenFailed) {
//	    // port will be retried on the next discovery pass
//	}
var (
	// ErrEnumerationFailed is returned when the OS port listing fails.
	ErrEnumerationFailed = errors.New("device: enumeration failed")

	// ErrOpenFailed is returned when a serial port cannot be opened
	// or configured.
	ErrOpenFailed = errors.New("device: open failed")
)
