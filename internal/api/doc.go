// Package api exposes the gateway's monitoring surface over HTTP.
//
// The gateway itself is headless. Everything a dashboard needs lives
// here: a handful of read-only REST endpoints for the current state,
// a Prometheus scrape target, and a websocket stream that mirrors the
// status lines, activity log, and counters the relay loop reports.
//
// # Architecture
//
// The package is split into two halves:
//
//   - Server owns the HTTP listener, the chi router, and the REST
//     handlers. It is started once from main and shut down gracefully
//     on exit.
//   - Hub caches the last reported value of every status key, the
//     recent activity lines, and the latest counters, and fans new
//     events out to connected websocket clients. The Hub implements
//     the gateway's sink interface, so it is wired into the relay
//     loop exactly like the MQTT reporter.
//
// The surface is strictly read-only. Commands reach the gateway from
// the central command source over HTTPS polling; nothing received on
// this API is ever forwarded to a serial device.
//
// # Endpoints
//
//	GET /healthz          liveness probe with version
//	GET /metrics          Prometheus exposition (when wired)
//	GET /api/v1/status    last value and colour per status key
//	GET /api/v1/stats     latest counters snapshot
//	GET /api/v1/devices   connected serial device paths
//	GET /api/v1/events    websocket event stream
//
// # Event Stream
//
// Each websocket frame is one JSON event with a "type" of "status",
// "log", or "stats". On connect the client receives a replay of the
// cached state (every status key, the retained activity lines, the
// last counters) before any live event, so a dashboard can render
// immediately without a separate fetch. Clients that stop reading are
// disconnected rather than allowed to stall the hub.
//
// # Usage
//
//	hub := api.NewHub(logger)
//	srv, err := api.New(api.Deps{
//		Config:   cfg.API,
//		Logger:   logger,
//		Registry: registry,
//		Hub:      hub,
//		Version:  version,
//	})
//	if err != nil {
//		return err
//	}
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Close()
package api
