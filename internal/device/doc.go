// Package device provides serial device discovery and connection
// management for the RIMS gateway.
//
// The package owns the full device lifecycle: enumerating attached
// ports, classifying which of them are gateway devices, opening and
// holding connections, and tearing connections down when a device
// disappears or fails.
//
// # Architecture
//
//	Enumerator ──▶ []Record ──▶ Matcher ──▶ eligible paths
//	                                            │
//	                                            ▼
//	                            Registry.Reconcile (open/close)
//	                                            │
//	                                            ▼
//	                            Registry.Broadcast / DropFailed
//
// # Key Types
//
//   - Record: One enumerated port (path, description, hardware id)
//   - Matcher: Rule-table classification of records
//   - Opener / Port: Serial transport abstraction (real or fake)
//   - Registry: The authoritative set of open connections
//
// # Fault Isolation
//
// A write failure on one connection never blocks or aborts delivery
// to the others: Broadcast finishes the full pass and reports the
// failures, which the caller then removes via DropFailed. Open
// failures leave the path absent and are retried on the next
// discovery pass. Teardown is always best-effort; close errors on a
// handle being discarded are logged at most.
//
// # Usage
//
//	opener := device.NewSerialOpener(device.OpenOptions{BaudRate: 9600})
//	registry := device.NewRegistry(opener)
//	registry.SetLogger(log)
//
//	records, err := enumerator.List()
//	if err != nil {
//	    return err
//	}
//	registry.Reconcile(matcher.EligiblePaths(records))
//	failed := registry.Broadcast([]byte("OPEN_GATE"))
//	registry.DropFailed(failed)
package device
