// Package gateway implements the command-relay loop for RIMS.
//
// The gateway polls a remote command endpoint and rebroadcasts every
// received command to the set of currently attached serial devices,
// while independently managing device connect/disconnect lifecycle.
//
// # Architecture
//
// A single worker goroutine drives everything:
//
//	┌──────────────┐  poll   ┌─────────────────┐  write  ┌──────────┐
//	│ Command API  │◄───────►│  Gateway Loop   │────────►│ Devices  │
//	│  (HTTPS)     │         │   (this pkg)    │         │ (serial) │
//	└──────────────┘         └────────┬────────┘         └──────────┘
//	                                  │ status / log / stats
//	                                  ▼
//	                         ┌─────────────────┐
//	                         │      Sink       │
//	                         │ (log, API, MQTT)│
//	                         └─────────────────┘
//
// Each iteration the worker: reconciles the device registry against a
// fresh enumeration (on the coarser discovery cadence), recomputes the
// derived statuses, polls the command source, broadcasts a received
// command to every connection, and pushes the counters to the sink.
// It then sleeps the poll interval.
//
// # Fault Policy
//
// No failure is fatal. A device that fails to open stays absent and is
// retried next discovery pass. A device that fails a write is dropped
// in the same iteration, without disturbing delivery to the others. A
// poll failure becomes a status and an error count. A panic anywhere
// in an iteration is recovered at the iteration boundary; the loop
// logs it, backs off, and continues. The only way the loop ends is
// Stop() or context cancellation, after which every connection is
// closed and a terminal STOPPED status is emitted.
//
// # Status Reporting
//
// Three status keys are maintained: "gateway" (RUNNING, SCANNING...,
// STOPPED), "serial" (CONNECTED (...), NO DEVICES), and "api" (OK,
// ERR <code>, TIMEOUT). Each carries a colour tag the sinks treat as
// opaque. Emissions are deduplicated per key, so a sink only hears
// transitions. Counter snapshots are pushed every iteration.
//
// # Thread Safety
//
// The worker goroutine owns all loop state. Stats() may be called from
// any goroutine. Sink implementations are invoked on the worker
// goroutine and must not block; panics in sinks are contained.
//
// # Usage
//
//	g, err := gateway.New(gateway.Options{
//	    Registry:   registry,
//	    Enumerator: device.NewPortEnumerator(),
//	    Matcher:    device.NewMatcher(nil),
//	    Source:     client,
//	    Sink:       sink,
//	})
//	if err != nil {
//	    return err
//	}
//	g.Start(ctx)
//	defer g.Stop()
package gateway
