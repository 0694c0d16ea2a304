// Package network owns the MQTT session for the lock bridge.
//
// Manager is the session supervisor: it drives the transport device,
// establishes and re-establishes the broker session, replays subscriptions
// and boot-time retained topics, routes inbound messages to registered
// receivers, and escalates stuck states to a device restart through an
// injected Restarter.
//
// The manager is driven from a single periodic tick; all connection state
// transitions happen inside that tick or the blocking reconnect protocol
// it enters. The transport's inbound callbacks may arrive on other
// goroutines, so the small amount of state they touch is mutex-guarded.
package network
