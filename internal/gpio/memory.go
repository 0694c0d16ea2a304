package gpio

import "sync"

// Memory is an in-process Controller.
//
// Input levels are set through SetInput, which fires the registered edge
// callbacks on a level change. Callbacks run synchronously on the caller's
// goroutine.
type Memory struct {
	mu        sync.Mutex
	entries   []PinEntry
	roles     map[int]PinRole
	levels    map[int]bool
	callbacks []Callback
}

// NewMemory creates a controller with the given pin configuration.
// Duplicate pin numbers keep the first entry.
func NewMemory(entries []PinEntry) *Memory {
	m := &Memory{
		roles:  make(map[int]PinRole, len(entries)),
		levels: make(map[int]bool, len(entries)),
	}
	for _, e := range entries {
		if _, ok := m.roles[e.Pin]; ok {
			continue
		}
		m.entries = append(m.entries, e)
		m.roles[e.Pin] = e.Role
		// Pull-ups idle high.
		m.levels[e.Pin] = e.Role == RoleInputPullUp
	}
	return m
}

// PinConfiguration implements Controller.
func (m *Memory) PinConfiguration() []PinEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PinEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// PinRole implements Controller.
func (m *Memory) PinRole(pin int) PinRole {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[pin]
}

// DigitalRead implements Controller.
func (m *Memory) DigitalRead(pin int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// DigitalWrite implements Controller.
func (m *Memory) DigitalWrite(pin int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.roles[pin].Output() {
		return
	}
	m.levels[pin] = high
}

// AddCallback implements Controller.
func (m *Memory) AddCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// SetInput sets the level of an input pin, firing edge callbacks when the
// level changes. Writes to non-input pins are ignored.
func (m *Memory) SetInput(pin int, high bool) {
	m.mu.Lock()
	if !m.roles[pin].Input() || m.levels[pin] == high {
		m.mu.Unlock()
		return
	}
	m.levels[pin] = high
	callbacks := make([]Callback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(pin)
	}
}
