// Package influxdb provides the time-series sink for gateway stats.
//
// It wraps the official influxdb-client-go v2 library with the
// gateway's patterns for connection management, batched writing, and
// health monitoring.
//
// # Purpose
//
// The relay loop pushes a stats snapshot every pass. This package
// turns those snapshots into the gateway_stats measurement so sites
// can graph command throughput, source errors, and connected device
// counts over time. Activity lines land in gateway_events for audit
// overlays.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteStats("gateway-001", 42, 3, 2, time.Now())
//
// # Error Handling
//
// Writes are non-blocking; batch errors surface via SetOnError.
// Connection and health check errors are returned directly. When the
// server is unreachable the write helpers drop points silently rather
// than stall the relay loop.
package influxdb
