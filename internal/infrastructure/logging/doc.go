// Package logging provides structured logging for the lock bridge.
//
// It wraps log/slog with level filtering, JSON or text output and default
// service fields. Components that want optional logging accept a minimal
// Logger interface defined at the point of use, which this package's
// Logger satisfies.
package logging
