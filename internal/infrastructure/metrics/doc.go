// Package metrics exposes the gateway's counters as Prometheus
// collectors.
//
// The relay loop owns its counters; this package reads them through a
// snapshot func at scrape time rather than maintaining a second copy.
// The API server mounts Handler() at /metrics.
//
//	m := metrics.New(func() metrics.Snapshot {
//	    s := gw.Stats()
//	    return metrics.Snapshot{
//	        CommandsSent: s.CommandsSent,
//	        Errors:       s.Errors,
//	        DeviceCount:  s.DeviceCount,
//	    }
//	})
//	mux.Handle("/metrics", m.Handler())
package metrics
