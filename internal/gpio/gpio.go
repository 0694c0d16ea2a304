package gpio

import "time"

// DebounceInterval is how long an input pin must stay quiet after an edge
// before its state is published.
const DebounceInterval = 200 * time.Millisecond

// PinRole describes what a configured pin is used for.
type PinRole int

// Pin roles. The zero value is a disabled pin.
const (
	RoleDisabled PinRole = iota
	RoleInputPullDown
	RoleInputPullUp
	RoleOutput
)

// String returns the human-readable role name.
func (r PinRole) String() string {
	switch r {
	case RoleDisabled:
		return "Disabled"
	case RoleInputPullDown:
		return "Input (pull-down)"
	case RoleInputPullUp:
		return "Input (pull-up)"
	case RoleOutput:
		return "Output"
	default:
		return "Unknown"
	}
}

// Input reports whether the role reads external state.
func (r PinRole) Input() bool {
	return r == RoleInputPullDown || r == RoleInputPullUp
}

// Output reports whether the role is driven by commands.
func (r PinRole) Output() bool {
	return r == RoleOutput
}

// PinEntry is one configured pin.
type PinEntry struct {
	Pin  int
	Role PinRole
}

// Callback is invoked on an input pin edge with the pin number.
type Callback func(pin int)

// Controller is the pin header as seen by the session manager.
type Controller interface {
	// PinConfiguration returns the configured pins in a stable order.
	PinConfiguration() []PinEntry

	// PinRole returns the role of the given pin, RoleDisabled when the
	// pin is not configured.
	PinRole(pin int) PinRole

	// DigitalRead returns the current level of a pin.
	DigitalRead(pin int) bool

	// DigitalWrite drives an output pin. Writes to pins not configured
	// as outputs are ignored.
	DigitalWrite(pin int, high bool)

	// AddCallback registers an edge callback for input pins. Callbacks
	// run in registration order.
	AddCallback(cb Callback)
}
