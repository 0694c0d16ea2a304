package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordTelemetry writes one bridge telemetry point. It satisfies the
// session manager's telemetry sink interface; the write is non-blocking.
//
// Parameters:
//   - rssi: Signal strength in dBm, 127 when the transport has none
//   - uptimeMinutes: Process uptime in whole minutes
//   - freeHeapBytes: Memory the runtime holds ready for allocation
func (c *Client) RecordTelemetry(rssi int8, uptimeMinutes int64, freeHeapBytes uint64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"uptime_minutes": uptimeMinutes,
		"free_heap":      int64(freeHeapBytes),
	}
	if rssi != 127 {
		fields["rssi"] = int64(rssi)
	}

	point := write.NewPoint(
		"bridge_telemetry",
		map[string]string{"host": c.hostname},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// RecordConnectionEvent writes a session state transition point, used for
// broker availability dashboards.
func (c *Client) RecordConnectionEvent(state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_connection",
		map[string]string{"host": c.hostname, "state": state},
		map[string]interface{}{"value": 1},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
