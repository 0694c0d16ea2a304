package prefs

// Preference keys.
//
// The short names are wire-stable: they are the keys other tooling
// (import/export, the configuration UI) reads and writes, so renaming one
// is a breaking change.
const (
	KeyDeviceID            = "deviceId"
	KeyMQTTBroker          = "mqttbroker"
	KeyMQTTBrokerPort      = "mqttport"
	KeyMQTTUser            = "mqttuser"
	KeyMQTTPassword        = "mqttpass"
	KeyMQTTLockPath        = "mqttpath"
	KeyHostname            = "hostname"
	KeyNetworkTimeout      = "nettimeout"
	KeyRestartOnDisconnect = "restdisc"
	KeyRSSIPublishInterval = "rssipb"
	KeyNetworkHardware     = "nwhw"
	KeyWiFiFallbackOff     = "wififb"
	KeyPublishDebugInfo    = "pubdebug"
	KeyCheckUpdates        = "checkupd"
	KeyLatestVersion       = "latest"
	KeyRestartReason       = "rstreason"
	KeyGPIOTopicHash       = "gpiohash"

	KeyHassDiscovery = "hassdiscovery"
	KeyHassConfigURL = "hasscuurl"

	// Capability flags gating Home Assistant discovery entities.
	KeyHassKeypad        = "hasskeypad"
	KeyHassDoorSensor    = "hassdoorsensor"
	KeyHassLEDBrightness = "hassled"
	KeyHassSoundLevel    = "hasssound"
)

// Keys written by earlier releases and no longer read. Open deletes them.
const (
	// KeyNetworkHardwareGPIO held the Ethernet chip detection pin map
	// before the hardware selector subsumed it.
	KeyNetworkHardwareGPIO = "nwhwdt"
)

// obsoleteKeys are purged from the store on open.
var obsoleteKeys = []string{KeyNetworkHardwareGPIO}
