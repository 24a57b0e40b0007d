package device

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Port is the minimal device connection handle held by the Registry.
// The gateway only ever writes; no read path exists.
type Port interface {
	Write(p []byte) (n int, err error)
	Close() error
}

// Opener opens a connection to a device path.
//
// The production implementation opens real serial ports; tests
// substitute a fake returning scripted ports.
type Opener interface {
	Open(path string) (Port, error)
}

// OpenOptions configures how serial ports are opened.
type OpenOptions struct {
	// BaudRate for the connection. Default: 9600.
	BaudRate int

	// ReadTimeout bounds port operations. The gateway never reads,
	// but an unset timeout leaves the handle blocking. Default: 1s.
	ReadTimeout time.Duration
}

// SerialOpener opens real serial ports with a fixed mode.
type SerialOpener struct {
	opts OpenOptions
}

// NewSerialOpener creates an opener with the given options.
// Zero-value fields fall back to defaults.
func NewSerialOpener(opts OpenOptions) *SerialOpener {
	if opts.BaudRate <= 0 {
		opts.BaudRate = defaultBaudRate
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	return &SerialOpener{opts: opts}
}

// Open implements Opener.
//
// The opened port has its read timeout applied and both I/O buffers
// cleared, so bytes from a previous session never reach the device.
//
// Parameters:
//   - path: OS device path, e.g. "/dev/ttyUSB0"
//
// Returns:
//   - Port: Open connection ready for writes
//   - error: ErrOpenFailed wrapping the underlying failure
func (o *SerialOpener) Open(path string) (Port, error) {
	mode := &serial.Mode{BaudRate: o.opts.BaudRate}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, path, err)
	}

	if err := port.SetReadTimeout(o.opts.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %s: setting read timeout: %w", ErrOpenFailed, path, err)
	}

	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %s: resetting input buffer: %w", ErrOpenFailed, path, err)
	}
	if err := port.ResetOutputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: %s: resetting output buffer: %w", ErrOpenFailed, path, err)
	}

	return port, nil
}
