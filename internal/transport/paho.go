package transport

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Paho session constants.
const (
	// ackTimeout is the maximum wait for publish/subscribe acknowledgement.
	ackTimeout = 5 * time.Second

	// disconnectQuiesce is the time allowed for in-flight messages on a
	// graceful disconnect, in milliseconds.
	disconnectQuiesce = 250

	// keepAliveInterval is the MQTT keepalive for the session.
	keepAliveInterval = 60 * time.Second

	// wirelessStatsPath is the kernel's wireless quality table.
	wirelessStatsPath = "/proc/net/wireless"
)

// DeviceConfig configures a PahoDevice.
type DeviceConfig struct {
	// Type selects the transport variant (name and RSSI support).
	Type DeviceType

	// Hostname is the MQTT client identifier default.
	Hostname string

	// Interface optionally pins the device to a named host interface.
	// When set, a missing interface is a critical failure.
	Interface string
}

// PahoDevice implements Device over paho.mqtt.golang.
//
// The session manager drives connection state explicitly, so paho's own
// auto-reconnect and retry machinery is disabled; a failed session is torn
// down and rebuilt on the next connect.
type PahoDevice struct {
	cfg DeviceConfig

	mu     sync.Mutex
	client pahomqtt.Client

	server       string
	port         int
	user         string
	password     string
	clientID     string
	cleanSession bool

	willTopic   string
	willQoS     byte
	willRetain  bool
	willPayload string

	onConnect    func(sessionPresent bool)
	onDisconnect func(err error)
	onMessage    func(topic string, payload []byte)

	subID   uint16
	lastErr error
}

// NewPahoDevice creates a transport device for the given variant.
func NewPahoDevice(cfg DeviceConfig) *PahoDevice {
	return &PahoDevice{
		cfg:      cfg,
		clientID: cfg.Hostname,
	}
}

// Initialize implements Device. Host networking needs no bring-up.
func (d *PahoDevice) Initialize() {}

// Update implements Device. The paho client pumps itself; nothing to do.
func (d *PahoDevice) Update() {}

// IsConnected reports whether the host has a usable non-loopback address.
func (d *PahoDevice) IsConnected() bool {
	return d.LocalIP() != ""
}

// Reconnect checks the network link and reports its status.
//
// A pinned interface that no longer exists is unrecoverable from this
// process; that is the condition that arms the Wi-Fi fallback marker.
func (d *PahoDevice) Reconnect() ReconnectStatus {
	if d.cfg.Interface != "" {
		if _, err := net.InterfaceByName(d.cfg.Interface); err != nil {
			d.setLastError(fmt.Errorf("%w: %s", ErrInterfaceMissing, d.cfg.Interface))
			return ReconnectCriticalFailure
		}
	}
	if d.LocalIP() == "" {
		return ReconnectFailure
	}
	return ReconnectSuccess
}

// MQTTConnected implements Device.
func (d *PahoDevice) MQTTConnected() bool {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()
	return client != nil && client.IsConnectionOpen()
}

// MQTTConnect starts an asynchronous broker handshake.
//
// The outcome is delivered through the registered MQTTOnConnect or
// MQTTOnDisconnect callback; the caller polls MQTTConnected.
func (d *PahoDevice) MQTTConnect() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.server == "" {
		d.lastErr = ErrNoServer
		if cb := d.onDisconnect; cb != nil {
			go cb(ErrNoServer)
		}
		return
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", d.server, d.port))
	opts.SetClientID(d.clientID)
	opts.SetCleanSession(d.cleanSession)
	opts.SetKeepAlive(keepAliveInterval)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if d.user != "" {
		opts.SetUsername(d.user)
		opts.SetPassword(d.password)
	}
	if d.willTopic != "" {
		opts.SetWill(d.willTopic, d.willPayload, d.willQoS, d.willRetain)
	}

	onConnect := d.onConnect
	onDisconnect := d.onDisconnect
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		if onConnect != nil {
			onConnect(!d.cleanSession)
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		d.setLastError(err)
		if onDisconnect != nil {
			onDisconnect(err)
		}
	})

	client := pahomqtt.NewClient(opts)
	d.client = client

	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			d.setLastError(err)
			if onDisconnect != nil {
				onDisconnect(err)
			}
		}
	}()
}

// MQTTDisconnect tears down the session so the next connect starts clean.
func (d *PahoDevice) MQTTDisconnect(force bool) {
	d.mu.Lock()
	client := d.client
	d.client = nil
	d.mu.Unlock()

	if client == nil {
		return
	}
	quiesce := uint(disconnectQuiesce)
	if force {
		quiesce = 0
	}
	client.Disconnect(quiesce)
}

// MQTTPublish implements Device.
func (d *PahoDevice) MQTTPublish(path string, qos byte, retain bool, payload string) int {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	if client == nil || !client.IsConnectionOpen() {
		d.setLastError(ErrNotConnected)
		return 0
	}

	token := client.Publish(path, qos, retain, payload)
	if !token.WaitTimeout(ackTimeout) {
		d.setLastError(fmt.Errorf("%w: timeout after %v", ErrPublishFailed, ackTimeout))
		return 0
	}
	if err := token.Error(); err != nil {
		d.setLastError(fmt.Errorf("%w: %w", ErrPublishFailed, err))
		return 0
	}
	return len(payload)
}

// MQTTSubscribe implements Device.
func (d *PahoDevice) MQTTSubscribe(path string, qos byte) uint16 {
	d.mu.Lock()
	client := d.client
	onMessage := d.onMessage
	d.mu.Unlock()

	if client == nil || !client.IsConnectionOpen() {
		d.setLastError(ErrNotConnected)
		return 0
	}

	token := client.Subscribe(path, qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		if onMessage != nil {
			onMessage(msg.Topic(), msg.Payload())
		}
	})
	if !token.WaitTimeout(ackTimeout) {
		d.setLastError(fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, ackTimeout))
		return 0
	}
	if err := token.Error(); err != nil {
		d.setLastError(fmt.Errorf("%w: %w", ErrSubscribeFailed, err))
		return 0
	}

	d.mu.Lock()
	d.subID++
	id := d.subID
	d.mu.Unlock()
	return id
}

// MQTTSetCredentials implements Device.
func (d *PahoDevice) MQTTSetCredentials(user, password string) {
	d.mu.Lock()
	d.user = user
	d.password = password
	d.mu.Unlock()
}

// MQTTSetServer implements Device.
func (d *PahoDevice) MQTTSetServer(address string, port int) {
	d.mu.Lock()
	d.server = address
	d.port = port
	d.mu.Unlock()
}

// MQTTSetClientID implements Device.
func (d *PahoDevice) MQTTSetClientID(id string) {
	d.mu.Lock()
	d.clientID = id
	d.mu.Unlock()
}

// MQTTSetCleanSession implements Device.
func (d *PahoDevice) MQTTSetCleanSession(clean bool) {
	d.mu.Lock()
	d.cleanSession = clean
	d.mu.Unlock()
}

// SetWill implements Device.
func (d *PahoDevice) SetWill(topic string, qos byte, retain bool, payload string) {
	d.mu.Lock()
	d.willTopic = topic
	d.willQoS = qos
	d.willRetain = retain
	d.willPayload = payload
	d.mu.Unlock()
}

// MQTTOnConnect implements Device.
func (d *PahoDevice) MQTTOnConnect(cb func(sessionPresent bool)) {
	d.mu.Lock()
	d.onConnect = cb
	d.mu.Unlock()
}

// MQTTOnDisconnect implements Device.
func (d *PahoDevice) MQTTOnDisconnect(cb func(err error)) {
	d.mu.Lock()
	d.onDisconnect = cb
	d.mu.Unlock()
}

// MQTTOnMessage implements Device.
func (d *PahoDevice) MQTTOnMessage(cb func(topic string, payload []byte)) {
	d.mu.Lock()
	d.onMessage = cb
	d.mu.Unlock()
}

// SignalStrength returns the Wi-Fi RSSI in dBm from the kernel's wireless
// statistics, or SignalStrengthUnsupported for wired variants and hosts
// without a wireless interface.
func (d *PahoDevice) SignalStrength() int8 {
	if !d.cfg.Type.Wireless() {
		return SignalStrengthUnsupported
	}
	return readWirelessLevel(wirelessStatsPath, d.cfg.Interface)
}

// LocalIP returns the first non-loopback IPv4 address, preferring the
// pinned interface when one is configured.
func (d *PahoDevice) LocalIP() string {
	if d.cfg.Interface != "" {
		iface, err := net.InterfaceByName(d.cfg.Interface)
		if err != nil {
			return ""
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return ""
		}
		return firstIPv4(addrs)
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	return firstIPv4(addrs)
}

// DeviceName implements Device.
func (d *PahoDevice) DeviceName() string {
	return d.cfg.Type.String()
}

// SupportsEncryption implements Device. The paho transport can carry TLS.
func (d *PahoDevice) SupportsEncryption() bool {
	return true
}

// LastError implements Device.
func (d *PahoDevice) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// setLastError records the most recent failure.
func (d *PahoDevice) setLastError(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}

// firstIPv4 returns the first non-loopback IPv4 address in addrs.
func firstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return ""
}

// readWirelessLevel parses the signal level column of /proc/net/wireless.
//
// The table has two header lines, then one line per wireless interface:
//
//	wlan0: 0000   54.  -56.  -256  0  0  0  0  0  0
//
// The fourth column is the signal level in dBm. An empty iface matches the
// first wireless interface found.
func readWirelessLevel(path, iface string) int8 {
	data, err := os.ReadFile(path)
	if err != nil {
		return SignalStrengthUnsupported
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if i < 2 {
			continue // column headers
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		name := strings.TrimSuffix(fields[0], ":")
		if iface != "" && name != iface {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			return SignalStrengthUnsupported
		}
		if level < -128 || level > 126 {
			return SignalStrengthUnsupported
		}
		return int8(level)
	}
	return SignalStrengthUnsupported
}
