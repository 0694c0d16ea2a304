// Package history journals inbound MQTT messages to SQLite.
//
// The Store is registered as a dispatch receiver: every message delivered
// outside the post-connect quiet window is recorded with its topic,
// payload and arrival time. The journal is bounded by a configured row
// cap, pruned oldest-first.
package history
