package transport

import "errors"

// Domain-specific errors for transport operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when MQTT operations run without a session.
	ErrNotConnected = errors.New("transport: mqtt not connected")

	// ErrNoServer is returned when connecting without a configured broker.
	ErrNoServer = errors.New("transport: no broker configured")

	// ErrInterfaceMissing is returned when the pinned host interface does
	// not exist. This is the critical-failure condition that triggers the
	// Wi-Fi fallback path.
	ErrInterfaceMissing = errors.New("transport: network interface not found")

	// ErrPublishFailed is returned when a publish is not acknowledged.
	ErrPublishFailed = errors.New("transport: publish failed")

	// ErrSubscribeFailed is returned when a subscribe is not acknowledged.
	ErrSubscribeFailed = errors.New("transport: subscribe failed")
)
