package network

import (
	"fmt"
	"strings"
)

// MQTTQoS is the quality-of-service level for every publish and subscribe.
const MQTTQoS byte = 1

// Topic path length ceilings. Broker topic-length conventions assume
// these; paths over the limit are rejected before reaching the wire.
const (
	// MaxPublishPathLength bounds assembled publish paths.
	MaxPublishPathLength = 200

	// MaxSubscribePathLength bounds subscription and init-topic paths.
	MaxSubscribePathLength = 500
)

// Topic suffixes, joined to the configured lock path prefix.
const (
	TopicMQTTConnectionState = "/mqtt/connectionState"
	TopicNetworkDevice       = "/maintenance/networkDevice"
	TopicWiFiRSSI            = "/maintenance/wifi_rssi"
	TopicUptime              = "/maintenance/uptime"
	TopicFreeHeap            = "/maintenance/freeheap"
	TopicRestartReason       = "/maintenance/restartReason"
	TopicHubVersion          = "/maintenance/info_hub_version"
	TopicHubLatest           = "/maintenance/info_hub_latest"
	TopicHubIP               = "/maintenance/info_hub_ip"
	TopicPresence            = "/presence/devices"
)

// gpioTopicPrefix starts every GPIO pin topic; the two-digit pin number
// and the role/state leaf follow.
const gpioTopicPrefix = "/gpio/pin_"

// Connection-state payloads. The will carries the offline payload.
const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// buildPath joins path fragments into one topic path.
//
// Exactly one '/' is inserted between adjacent fragments unless the next
// fragment already starts with one. No other normalisation happens, so a
// fragment with a trailing slash produces a double slash, same as the
// broker would see from a misconfigured prefix.
func buildPath(fragments ...string) string {
	var b strings.Builder
	for i, f := range fragments {
		if i > 0 && !strings.HasPrefix(f, "/") {
			b.WriteByte('/')
		}
		b.WriteString(f)
	}
	return b.String()
}

// gpioRoleTopic returns the role topic suffix for a pin.
func gpioRoleTopic(pin int) string {
	return fmt.Sprintf("%s%02d/role", gpioTopicPrefix, pin)
}

// gpioStateTopic returns the state topic suffix for a pin.
func gpioStateTopic(pin int) string {
	return fmt.Sprintf("%s%02d/state", gpioTopicPrefix, pin)
}
