// Package influxdb is the optional telemetry sink.
//
// When enabled in config.yaml, the session manager's periodic readings
// (signal strength, uptime, free heap) are written as measurement points
// through the non-blocking batched write API. The bridge works fully
// without it; a failed connection at startup only disables telemetry.
package influxdb
