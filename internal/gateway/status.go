package gateway

import (
	"fmt"
	"strings"
)

// Status keys. Each key tracks one independently-updated indicator.
const (
	// StatusKeyGateway is the overall engine state.
	StatusKeyGateway = "gateway"

	// StatusKeySerial is the device connection state.
	StatusKeySerial = "serial"

	// StatusKeyAPI is the command source state.
	StatusKeyAPI = "api"
)

// Gateway engine status values.
const (
	StatusRunning  = "RUNNING"
	StatusScanning = "SCANNING..."
	StatusStopped  = "STOPPED"
)

// Serial status value when no device is connected. The connected value
// is built by serialConnectedValue.
const StatusNoDevices = "NO DEVICES"

// API status values. HTTP errors are rendered by apiErrorValue.
const (
	StatusAPIOK      = "OK"
	StatusAPITimeout = "TIMEOUT"
)

// Colour tags attached to every status emission. Opaque to the
// gateway; sinks map them onto whatever display they drive.
const (
	ColourSuccess = "#27ae60"
	ColourError   = "#e74c3c"
	ColourWarning = "#f39c12"
)

// maxPortListLen caps the joined port list in the serial status before
// it collapses to a device count.
const maxPortListLen = 20

// serialConnectedValue renders the serial status for a non-empty set
// of connected paths, e.g. "CONNECTED (COM3, COM5)". A joined list
// longer than maxPortListLen collapses to "N Devices".
func serialConnectedValue(paths []string) string {
	list := strings.Join(paths, ", ")
	if len(list) > maxPortListLen {
		list = fmt.Sprintf("%d Devices", len(paths))
	}
	return fmt.Sprintf("CONNECTED (%s)", list)
}

// apiErrorValue renders the api status for a non-200 response,
// e.g. "ERR 500".
func apiErrorValue(code int) string {
	return fmt.Sprintf("ERR %d", code)
}
