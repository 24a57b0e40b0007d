package device

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Enumerator lists serial port candidates.
//
// The production implementation queries the OS; tests substitute a
// fake returning canned records.
type Enumerator interface {
	// List returns a snapshot of currently attached ports.
	List() ([]Record, error)
}

// PortEnumerator enumerates serial ports via the OS port registry,
// including USB metadata where available.
type PortEnumerator struct{}

// NewPortEnumerator creates an OS-backed port enumerator.
func NewPortEnumerator() *PortEnumerator {
	return &PortEnumerator{}
}

// List implements Enumerator.
//
// Returns:
//   - []Record: One record per attached port, USB or otherwise
//   - error: ErrEnumerationFailed wrapping the OS error
func (e *PortEnumerator) List() ([]Record, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumerationFailed, err)
	}

	records := make([]Record, 0, len(details))
	for _, d := range details {
		records = append(records, Record{
			Path:        d.Name,
			Description: d.Product,
			HardwareID:  hardwareID(d),
		})
	}
	return records, nil
}

// hardwareID assembles a pyserial-style hardware identity string so
// the default vid:pid rules match what operators already recognise.
func hardwareID(d *enumerator.PortDetails) string {
	if !d.IsUSB {
		return ""
	}

	id := fmt.Sprintf("USB VID:PID=%s:%s", strings.ToUpper(d.VID), strings.ToUpper(d.PID))
	if d.SerialNumber != "" {
		id += " SER=" + d.SerialNumber
	}
	return id
}
