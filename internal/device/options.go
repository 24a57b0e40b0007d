package device

import "time"

// Default serial port settings, matching the deployed ESP firmware.
const (
	defaultBaudRate    = 9600
	defaultReadTimeout = time.Second
)
