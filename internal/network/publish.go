package network

import "strconv"

// Typed publishers. All variants join prefix and topic through the path
// builder and publish retained at the fixed QoS. The numeric and bool
// variants are fire-and-forget: a transient failure self-corrects on the
// next periodic publish.

// PublishInt publishes a signed integer in decimal.
func (m *Manager) PublishInt(prefix, topic string, value int) {
	m.PublishString(prefix, topic, strconv.Itoa(value))
}

// PublishUInt publishes an unsigned integer in decimal.
func (m *Manager) PublishUInt(prefix, topic string, value uint) {
	m.PublishString(prefix, topic, strconv.FormatUint(uint64(value), 10))
}

// PublishULong publishes a 64-bit unsigned integer in decimal.
func (m *Manager) PublishULong(prefix, topic string, value uint64) {
	m.PublishString(prefix, topic, strconv.FormatUint(value, 10))
}

// PublishFloat publishes a float in fixed-point notation with the given
// number of decimal places.
func (m *Manager) PublishFloat(prefix, topic string, value float64, precision int) {
	m.PublishString(prefix, topic, strconv.FormatFloat(value, 'f', precision, 64))
}

// PublishBool publishes "1" for true, "0" for false.
func (m *Manager) PublishBool(prefix, topic string, value bool) {
	m.PublishString(prefix, topic, boolPayload(value))
}

// PublishString publishes a payload unmodified.
//
// Returns whether the broker accepted the publish. Paths over the publish
// length ceiling are rejected without touching the wire.
func (m *Manager) PublishString(prefix, topic, value string) bool {
	path := buildPath(prefix, topic)
	if len(path) > MaxPublishPathLength {
		m.log.Error("publish rejected", "topic", path, "error", ErrPathTooLong)
		return false
	}
	return m.device.MQTTPublish(path, MQTTQoS, true, value) >= len(value)
}

// boolPayload encodes a bool as the wire payload.
func boolPayload(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
