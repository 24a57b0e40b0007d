package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStats records one gateway stats snapshot.
//
// The write is non-blocking; points are batched and sent
// asynchronously. Counters are written as int64 fields because
// InfluxDB field types are fixed per measurement and int64 is the
// conventional integer field type.
//
// Parameters:
//   - gatewayID: identifies this gateway instance (tag, low cardinality)
//   - commandsSent: cumulative commands delivered to every device
//   - errorCount: cumulative command source failures
//   - deviceCount: devices connected at snapshot time
//   - timestamp: when the snapshot was taken
//
// Example:
//
//	client.WriteStats("gateway-001", 42, 3, 2, time.Now())
func (c *Client) WriteStats(gatewayID string, commandsSent, errorCount uint64, deviceCount int, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	// #nosec G115 -- counters never reach the int64 boundary in practice
	point := write.NewPoint(
		"gateway_stats",
		map[string]string{
			"gateway_id": gatewayID,
		},
		map[string]interface{}{
			"commands_sent": int64(commandsSent),
			"errors":        int64(errorCount),
			"device_count":  deviceCount,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteEvent records one activity line for audit history.
//
// Events land in the gateway_events measurement with the line as a
// field, so dashboards can overlay command activity on the stats
// series.
func (c *Client) WriteEvent(gatewayID string, message string, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"gateway_events",
		map[string]string{
			"gateway_id": gatewayID,
		},
		map[string]interface{}{
			"message": message,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}
