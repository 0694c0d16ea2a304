// Package gpio models the bridge's general-purpose pin header.
//
// Controller is the capability surface the session manager consumes: the
// configured pin roles, level reads and writes, and edge notification for
// input pins. Memory is the in-process implementation used by the binary
// and by tests; a hardware-backed controller only needs to satisfy the
// same interface.
package gpio
