package transport

// DeviceType identifies the network transport variant the bridge runs on.
// It is selected once at startup from the persisted hardware selector and
// is immutable for the process lifetime; changing it requires a restart.
type DeviceType int

// Supported transport variants. The numeric order matches the persisted
// hardware selector values (1..7); zero/unknown selectors resolve to WiFi.
const (
	DeviceUnknown DeviceType = iota
	DeviceWiFi
	DeviceW5500
	DeviceW5500M5
	DeviceOlimexLAN8720
	DeviceWT32LAN8720
	DeviceM5PoESP32
	DeviceLilyGOTETHPOE
)

// String returns the human-readable device name.
func (d DeviceType) String() string {
	switch d {
	case DeviceWiFi:
		return "Wi-Fi"
	case DeviceW5500:
		return "Generic W5500"
	case DeviceW5500M5:
		return "W5500 on M5Stack Atom POE"
	case DeviceOlimexLAN8720:
		return "Olimex (LAN8720)"
	case DeviceWT32LAN8720:
		return "WT32-ETH01"
	case DeviceM5PoESP32:
		return "M5STACK PoESP32 Unit"
	case DeviceLilyGOTETHPOE:
		return "LilyGO T-ETH-POE"
	default:
		return "Unknown"
	}
}

// Wireless reports whether the variant has a meaningful signal strength.
// Wired PHY variants report SignalStrengthUnsupported.
func (d DeviceType) Wireless() bool {
	return d == DeviceWiFi
}

// ReconnectStatus is the outcome of a transport-level reconnect attempt.
type ReconnectStatus int

const (
	// ReconnectSuccess means the link is up again.
	ReconnectSuccess ReconnectStatus = iota

	// ReconnectFailure means the link is still down; retry later.
	ReconnectFailure

	// ReconnectCriticalFailure means the transport hardware is unusable and
	// the device should fall back to Wi-Fi on the next boot.
	ReconnectCriticalFailure
)

// SignalStrengthUnsupported is the sentinel returned by SignalStrength
// when the transport has no RSSI reading.
const SignalStrengthUnsupported int8 = 127

// Device is the uniform capability set the session manager drives.
//
// The session manager owns the device exclusively: it is the only component
// that initiates connection or reconnection. Publishers and the dispatch
// router are handed the device for I/O but never manage its lifecycle.
type Device interface {
	// Initialize brings up the transport. Called once before the first tick.
	Initialize()

	// Update pumps the transport. Called every tick and while waiting for
	// the broker handshake.
	Update()

	// IsConnected reports whether the underlying network link is up.
	IsConnected() bool

	// Reconnect attempts to re-establish the network link.
	Reconnect() ReconnectStatus

	// MQTTConnected reports whether the MQTT session is established.
	MQTTConnected() bool

	// MQTTConnect starts an asynchronous broker handshake. Completion is
	// signalled through the MQTTOnConnect / MQTTOnDisconnect callbacks.
	MQTTConnect()

	// MQTTDisconnect tears down the MQTT session. With force set, partial
	// session state is dropped rather than flushed.
	MQTTDisconnect(force bool)

	// MQTTPublish sends a payload and returns the number of bytes accepted,
	// 0 on failure.
	MQTTPublish(path string, qos byte, retain bool, payload string) int

	// MQTTSubscribe subscribes to a topic and returns a packet id, 0 on failure.
	MQTTSubscribe(path string, qos byte) uint16

	// MQTTSetCredentials attaches username/password to the next connect.
	MQTTSetCredentials(user, password string)

	// MQTTSetServer sets the broker address for the next connect.
	MQTTSetServer(address string, port int)

	// MQTTSetClientID sets the client identifier for the next connect.
	MQTTSetClientID(id string)

	// MQTTSetCleanSession sets the clean-session flag for the next connect.
	MQTTSetCleanSession(clean bool)

	// SetWill registers the last-will message for the next connect.
	SetWill(topic string, qos byte, retain bool, payload string)

	// MQTTOnConnect registers the connect-acknowledgement callback.
	MQTTOnConnect(func(sessionPresent bool))

	// MQTTOnDisconnect registers the disconnect callback.
	MQTTOnDisconnect(func(err error))

	// MQTTOnMessage registers the inbound message callback.
	MQTTOnMessage(func(topic string, payload []byte))

	// SignalStrength returns the RSSI in dBm, or SignalStrengthUnsupported.
	SignalStrength() int8

	// LocalIP returns the local address as a string, "" when unknown.
	LocalIP() string

	// DeviceName returns the transport variant name.
	DeviceName() string

	// SupportsEncryption reports whether the transport can carry TLS.
	SupportsEncryption() bool

	// LastError returns the most recent transport or MQTT error, nil if none.
	LastError() error
}
