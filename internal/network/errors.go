package network

import "errors"

// Sentinel errors for session management. Callers match with errors.Is.
var (
	// ErrEmptyBrokerAddress is returned when a connect attempt is made
	// without a configured broker address.
	ErrEmptyBrokerAddress = errors.New("mqtt broker address is empty")

	// ErrHandshakeTimeout is returned when the broker handshake does not
	// complete within the handshake deadline.
	ErrHandshakeTimeout = errors.New("mqtt handshake timed out")

	// ErrPathTooLong is returned when an assembled topic path exceeds the
	// allowed length for its use.
	ErrPathTooLong = errors.New("topic path too long")
)
