package network

// maxInternalPayload bounds the payload slice used for internal command
// parsing. Receivers always get the full payload.
const maxInternalPayload = 49

// Receiver consumes inbound broker messages. Every receiver gets every
// message; filtering by topic prefix is the receiver's own concern.
type Receiver interface {
	OnMQTTMessage(topic string, payload []byte)
}

// onMessageReceived is the transport's inbound message callback. It may
// run on a transport goroutine.
//
// Processing order: GPIO output commands are applied first and
// unconditionally, because a retained output command replayed after a
// reconnect must still drive the pin. Then the post-connect quiet window
// drops everything else, and finally the message is delivered to every
// registered receiver in registration order.
func (m *Manager) onMessageReceived(topic string, payload []byte) {
	short := payload
	if len(short) > maxInternalPayload {
		short = short[:maxInternalPayload]
	}

	m.handleGPIOCommand(topic, short)

	m.mu.Lock()
	quiet := m.now().Before(m.ignoreSubscriptionsUntil)
	receivers := make([]Receiver, len(m.receivers))
	copy(receivers, m.receivers)
	m.mu.Unlock()

	if quiet {
		return
	}

	for _, r := range receivers {
		r.OnMQTTMessage(topic, payload)
	}
}

// handleGPIOCommand drives an output pin when the topic matches the pin
// state path pattern. Payload "1" is logic-high, anything else low.
//
// Pin parsing is best-effort: the two characters after the pin prefix
// must be digits, and the resolved pin must be configured as an output;
// everything else is ignored.
func (m *Manager) handleGPIOCommand(topic string, payload []byte) {
	if m.gpio == nil {
		return
	}

	prefix := buildPath(m.lockPath, gpioTopicPrefix)
	if len(topic) < len(prefix)+2 || topic[:len(prefix)] != prefix {
		return
	}

	d1, d2 := topic[len(prefix)], topic[len(prefix)+1]
	if d1 < '0' || d1 > '9' || d2 < '0' || d2 > '9' {
		return
	}
	pin := int(d1-'0')*10 + int(d2-'0')

	if topic[len(prefix)+2:] != "/state" {
		return
	}
	if !m.gpio.PinRole(pin).Output() {
		return
	}

	m.gpio.DigitalWrite(pin, string(payload) == "1")
}
