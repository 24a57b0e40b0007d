package device

// Record describes one enumerated serial port candidate.
//
// Records are produced by an Enumerator, classified by a Matcher, and
// then discarded. They are never persisted: the next discovery pass
// produces a fresh snapshot.
type Record struct {
	// Path is the OS device identifier, e.g. "/dev/ttyUSB0" or "COM3".
	// It keys the connection registry.
	Path string

	// Description is the human-readable product string reported by the
	// OS, e.g. "CP2102 USB to UART Bridge Controller". May be empty.
	Description string

	// HardwareID is a vendor/product identity string in the form
	// "USB VID:PID=10C4:EA60 SER=0001". Empty for non-USB ports.
	HardwareID string
}
