// Package prefs is the persistent preferences store for the lock bridge.
//
// It holds the device behaviour settings: broker address and credentials,
// topic prefixes, watchdog timeouts, publish intervals and feature flags.
// Values are stored in a single bbolt bucket under short wire-stable keys;
// unset keys read as zero values, and callers seed their own defaults back
// into the store on first run.
package prefs
