package network

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lockbridge/lockbridge/internal/gpio"
	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
	"github.com/lockbridge/lockbridge/internal/prefs"
	"github.com/lockbridge/lockbridge/internal/transport"
)

// Session timing constants.
const (
	// reconnectBackoff is the delay before the next connect attempt after
	// a failure or an unconfigured broker.
	reconnectBackoff = 5 * time.Second

	// handshakeTimeout bounds the blocking wait for the broker handshake.
	handshakeTimeout = 60 * time.Second

	// handshakePollInterval is how often the handshake wait pumps the
	// transport and the keep-alive callback.
	handshakePollInterval = 50 * time.Millisecond

	// postConnectSettle is a short delay after the handshake completes
	// before subscriptions are replayed.
	postConnectSettle = 100 * time.Millisecond

	// subscriptionQuietWindow suppresses retained-message replay after a
	// (re)connect. GPIO output commands are exempt.
	subscriptionQuietWindow = 2000 * time.Millisecond

	// watchdogGracePeriod is the minimum uptime before either watchdog
	// may restart the device.
	watchdogGracePeriod = 60 * time.Second

	// maintenanceInterval is the cadence of the uptime/debug publishes.
	maintenanceInterval = 30 * time.Second

	// updateCheckInterval is the cadence of the latest-release check.
	updateCheckInterval = 24 * time.Hour
)

// defaultUpdateURL is the latest-release endpoint polled by the update
// check. Tests override it through ManagerOptions.
const defaultUpdateURL = "https://api.github.com/repos/lockbridge/lockbridge/releases/latest"

// ConnectionState is the MQTT session state. It is owned exclusively by
// the Manager and is the single source of truth for "is MQTT usable now".
type ConnectionState int

// Connection states.
const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// PreferenceStore is the slice of the preference store the manager needs.
// *prefs.Store satisfies it.
type PreferenceStore interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	PutString(key, value string) error
	PutInt(key string, value int) error
	Has(key string) bool
}

// TelemetrySink receives the periodic maintenance readings. The InfluxDB
// sink implements it; a nil sink disables telemetry.
type TelemetrySink interface {
	RecordTelemetry(rssi int8, uptimeMinutes int64, freeHeapBytes uint64)
}

// initTopic is one retained topic published on the first connect.
type initTopic struct {
	path  string
	value string
}

// ManagerOptions bundles the Manager's dependencies.
type ManagerOptions struct {
	Device    transport.Device
	Prefs     PreferenceStore
	GPIO      gpio.Controller
	Marker    *transport.FallbackMarker
	Restarter Restarter
	Logger    *logging.Logger
	Version   string

	// Telemetry optionally receives the maintenance readings.
	Telemetry TelemetrySink

	// UpdateURL overrides the latest-release endpoint. Empty selects the
	// default.
	UpdateURL string

	// HTTPClient overrides the client used for the update check.
	HTTPClient *http.Client
}

// Manager supervises the MQTT session over the transport device.
//
// The device handle is exclusively owned by the manager: publishers and
// the dispatch path use it for I/O but never initiate reconnection. All
// state transitions happen inside Update or the reconnect protocol it
// enters.
type Manager struct {
	device    transport.Device
	prefs     PreferenceStore
	gpio      gpio.Controller
	marker    *transport.FallbackMarker
	restarter Restarter
	log       *logging.Logger
	version   string

	telemetry  TelemetrySink
	updateURL  string
	httpClient *http.Client

	// now and sleep are test seams for the tick and handshake clocks.
	now   func() time.Time
	sleep func(time.Duration)

	state        ConnectionState
	mqttEnabled  bool
	autoRestarts bool
	firstConnect bool

	hostname            string
	lockPath            string
	brokerAddress       string
	brokerPort          int
	user                string
	password            string
	networkTimeout      int // seconds, <=0 disables the watchdog
	restartOnDisconnect bool
	rssiInterval        time.Duration
	publishDebug        bool
	checkUpdates        bool
	restartReason       string

	subscribedTopics   []string
	initTopics         []initTopic
	reconnectListeners []func()
	keepAlive          func()

	startTime         time.Time
	nextReconnect     time.Time
	lastMQTTConnected time.Time

	lastRSSIPublish   time.Time
	lastPublishedRSSI int8
	rssiPublished     bool
	lastMaintenance   time.Time
	lastUpdateCheck   time.Time
	versionPublished  bool

	// connectReply is set by the transport's connect/disconnect callbacks,
	// which may run on other goroutines.
	connectReply atomic.Bool

	// mu guards the state below, shared with the transport's inbound
	// message callback.
	mu                       sync.Mutex
	ignoreSubscriptionsUntil time.Time
	receivers                []Receiver
	presencePayload          string
	presencePending          bool
	debounce                 map[int]time.Time
}

// NewManager creates a session manager.
//
// Parameters:
//   - opts: Dependencies; Device, Prefs and Logger are required, the rest
//     are optional
//
// Returns:
//   - *Manager: Manager ready for Initialize
func NewManager(opts ManagerOptions) *Manager {
	updateURL := opts.UpdateURL
	if updateURL == "" {
		updateURL = defaultUpdateURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Manager{
		device:       opts.Device,
		prefs:        opts.Prefs,
		gpio:         opts.GPIO,
		marker:       opts.Marker,
		restarter:    opts.Restarter,
		log:          opts.Logger,
		version:      opts.Version,
		telemetry:    opts.Telemetry,
		updateURL:    updateURL,
		httpClient:   httpClient,
		now:          time.Now,
		sleep:        time.Sleep,
		mqttEnabled:  true,
		autoRestarts: true,
		firstConnect: true,
		debounce:     make(map[int]time.Time),
	}
}

// Initialize seeds preference defaults, loads the broker configuration,
// prepares the transport session parameters and sets up the GPIO topic
// tree. Called once before the first Update.
func (m *Manager) Initialize() {
	m.seedDefaults()

	m.hostname = m.prefs.GetString(prefs.KeyHostname)
	m.lockPath = m.prefs.GetString(prefs.KeyMQTTLockPath)
	m.brokerAddress = m.prefs.GetString(prefs.KeyMQTTBroker)
	m.brokerPort = m.prefs.GetInt(prefs.KeyMQTTBrokerPort)
	m.user = m.prefs.GetString(prefs.KeyMQTTUser)
	m.password = m.prefs.GetString(prefs.KeyMQTTPassword)
	m.networkTimeout = m.prefs.GetInt(prefs.KeyNetworkTimeout)
	m.restartOnDisconnect = m.prefs.GetBool(prefs.KeyRestartOnDisconnect)
	m.rssiInterval = time.Duration(m.prefs.GetInt(prefs.KeyRSSIPublishInterval)) * time.Second
	m.publishDebug = m.prefs.GetBool(prefs.KeyPublishDebugInfo)
	m.checkUpdates = m.prefs.GetBool(prefs.KeyCheckUpdates)
	m.restartReason = m.prefs.GetString(prefs.KeyRestartReason)

	m.device.MQTTSetClientID(m.hostname)
	m.device.MQTTSetCleanSession(false)

	m.device.MQTTOnConnect(func(bool) {
		m.connectReply.Store(true)
	})
	m.device.MQTTOnDisconnect(func(err error) {
		// The handshake wait breaks on either outcome.
		m.connectReply.Store(true)
		if err != nil {
			m.log.Warn("mqtt connection lost", "error", err)
		}
	})
	m.device.MQTTOnMessage(m.onMessageReceived)

	m.setupGPIO()

	m.startTime = m.now()
	m.lastMQTTConnected = m.startTime
	m.device.Initialize()

	m.log.Info("network manager initialized",
		"device", m.device.DeviceName(),
		"broker", m.brokerAddress,
		"lockPath", m.lockPath)
}

// seedDefaults writes first-boot values for preferences that have never
// been set. Existing values are left alone.
func (m *Manager) seedDefaults() {
	type seed struct {
		key string
		set func() error
	}
	seeds := []seed{
		{prefs.KeyHostname, func() error { return m.prefs.PutString(prefs.KeyHostname, "lockbridge") }},
		{prefs.KeyMQTTLockPath, func() error { return m.prefs.PutString(prefs.KeyMQTTLockPath, "lockbridge/lock") }},
		{prefs.KeyMQTTBrokerPort, func() error { return m.prefs.PutInt(prefs.KeyMQTTBrokerPort, 1883) }},
		{prefs.KeyRSSIPublishInterval, func() error { return m.prefs.PutInt(prefs.KeyRSSIPublishInterval, 60) }},
		{prefs.KeyNetworkTimeout, func() error { return m.prefs.PutInt(prefs.KeyNetworkTimeout, -1) }},
	}
	for _, s := range seeds {
		if m.prefs.Has(s.key) {
			continue
		}
		if err := s.set(); err != nil {
			m.log.Error("seeding preference default", "key", s.key, "error", err)
		}
	}
}

// setupGPIO registers the GPIO topic tree: role and state init topics for
// configured pins, subscriptions for output pin command topics, and the
// edge callback feeding the debounce map. The init topics are only
// re-registered when the pin configuration changed since the last boot,
// tracked through a configuration hash.
func (m *Manager) setupGPIO() {
	if m.gpio == nil {
		return
	}

	entries := m.gpio.PinConfiguration()

	hash := gpioConfigHash(entries)
	rebuild := m.prefs.GetString(prefs.KeyGPIOTopicHash) != hash

	for _, e := range entries {
		if e.Role == gpio.RoleDisabled {
			continue
		}
		if rebuild {
			m.InitTopic(m.lockPath, gpioRoleTopic(e.Pin), e.Role.String())
		}
		if e.Role.Input() && rebuild {
			m.InitTopic(m.lockPath, gpioStateTopic(e.Pin), boolPayload(m.gpio.DigitalRead(e.Pin)))
		}
		if e.Role.Output() {
			m.Subscribe(m.lockPath, gpioStateTopic(e.Pin))
		}
	}

	if rebuild {
		if err := m.prefs.PutString(prefs.KeyGPIOTopicHash, hash); err != nil {
			m.log.Error("persisting gpio topic hash", "error", err)
		}
	}

	m.gpio.AddCallback(func(pin int) {
		if !m.gpio.PinRole(pin).Input() {
			return
		}
		m.mu.Lock()
		m.debounce[pin] = m.now()
		m.mu.Unlock()
	})
}

// gpioConfigHash fingerprints the pin configuration for change detection.
func gpioConfigHash(entries []gpio.PinEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%d:%d;", e.Pin, e.Role)
	}
	return b.String()
}

// Update is the periodic tick driving the session.
//
// It pumps the transport, supervises link and session liveness, runs the
// reconnect protocol when the session is down, and in steady state flushes
// the periodic publishes.
func (m *Manager) Update() {
	m.device.Update()
	if !m.mqttEnabled {
		return
	}

	now := m.now()

	if !m.device.IsConnected() {
		if m.restartOnDisconnect && m.autoRestarts && now.Sub(m.startTime) > watchdogGracePeriod {
			m.restart(RestartReasonDisconnectWatchdog)
			return
		}
		switch m.device.Reconnect() {
		case transport.ReconnectCriticalFailure:
			m.log.Error("transport critical failure", "error", m.device.LastError())
			if m.marker != nil {
				if err := m.marker.Set(); err != nil {
					m.log.Error("setting wifi fallback marker", "error", err)
				}
			}
			m.restart(RestartReasonNetworkDeviceCriticalFailure)
			return
		case transport.ReconnectSuccess:
			if m.marker != nil {
				if err := m.marker.Clear(); err != nil {
					m.log.Error("clearing wifi fallback marker", "error", err)
				}
			}
		}
		if !m.device.IsConnected() {
			return
		}
	}

	if !m.device.MQTTConnected() {
		if m.state == StateConnected {
			m.state = StateDisconnected
			m.log.Warn("mqtt session lost")
		}
		if m.networkTimeout > 0 && m.autoRestarts &&
			now.Sub(m.lastMQTTConnected) > time.Duration(m.networkTimeout)*time.Second &&
			now.Sub(m.startTime) > watchdogGracePeriod {
			m.restart(RestartReasonNetworkTimeoutWatchdog)
			return
		}
		if now.Before(m.nextReconnect) {
			return
		}
		m.reconnect(now)
		return
	}

	m.lastMQTTConnected = now
	m.publishMaintenance(now)
}

// reconnect runs the blocking broker handshake protocol.
//
// Returns whether the session reached Connected.
func (m *Manager) reconnect(now time.Time) bool {
	if m.brokerAddress == "" {
		m.log.Warn("mqtt broker address not configured", "error", ErrEmptyBrokerAddress)
		m.nextReconnect = now.Add(reconnectBackoff)
		return false
	}

	m.log.Info("connecting to mqtt broker",
		"broker", m.brokerAddress,
		"port", m.brokerPort)

	if m.user != "" {
		m.device.MQTTSetCredentials(m.user, m.password)
	}
	m.device.SetWill(buildPath(m.lockPath, TopicMQTTConnectionState), MQTTQoS, true, payloadOffline)
	m.device.MQTTSetServer(m.brokerAddress, m.brokerPort)

	m.connectReply.Store(false)
	m.device.MQTTConnect()

	deadline := now.Add(handshakeTimeout)
	for !m.connectReply.Load() && m.now().Before(deadline) {
		m.device.Update()
		if m.keepAlive != nil {
			m.keepAlive()
		}
		m.sleep(handshakePollInterval)
	}

	if !m.device.MQTTConnected() {
		err := m.device.LastError()
		if err == nil && !m.connectReply.Load() {
			err = ErrHandshakeTimeout
		}
		m.log.Warn("mqtt connect failed", "error", err)
		m.state = StateDisconnected
		m.nextReconnect = m.now().Add(reconnectBackoff)
		m.device.MQTTDisconnect(true)
		return false
	}

	m.state = StateConnecting
	m.sleep(postConnectSettle)

	m.mu.Lock()
	m.ignoreSubscriptionsUntil = m.now().Add(subscriptionQuietWindow)
	m.mu.Unlock()

	m.device.MQTTOnMessage(m.onMessageReceived)

	for _, topic := range m.subscribedTopics {
		if m.device.MQTTSubscribe(topic, MQTTQoS) == 0 {
			m.log.Warn("resubscribe failed", "topic", topic, "error", m.device.LastError())
		}
	}

	if m.firstConnect {
		m.PublishString(m.lockPath, TopicNetworkDevice, m.device.DeviceName())
		for _, it := range m.initTopics {
			m.device.MQTTPublish(it.path, MQTTQoS, true, it.value)
		}
		m.firstConnect = false
	}

	m.PublishString(m.lockPath, TopicMQTTConnectionState, payloadOnline)
	m.PublishString(m.lockPath, TopicHubIP, m.device.LocalIP())

	m.state = StateConnected
	m.lastMQTTConnected = m.now()
	m.log.Info("mqtt connected", "ip", m.device.LocalIP())

	for _, cb := range m.reconnectListeners {
		cb()
	}
	return true
}

// restart escalates through the injected Restarter. With auto restarts
// disabled the escalation is logged and dropped.
func (m *Manager) restart(reason RestartReason) {
	if !m.autoRestarts || m.restarter == nil {
		m.log.Warn("restart suppressed", "reason", reason.String())
		return
	}
	m.restarter.Restart(reason)
}

// ============================================================================
// Registration surface
// ============================================================================

// Subscribe appends a topic to the subscription set. The set is replayed
// in insertion order on every successful (re)connect and never pruned.
func (m *Manager) Subscribe(prefix, path string) {
	full := buildPath(prefix, path)
	if len(full) > MaxSubscribePathLength {
		m.log.Error("subscription rejected", "topic", full, "error", ErrPathTooLong)
		return
	}
	m.subscribedTopics = append(m.subscribedTopics, full)
}

// InitTopic registers a retained value published once, on the first
// successful connect after boot. Re-registering a path replaces its value.
func (m *Manager) InitTopic(prefix, path, value string) {
	full := buildPath(prefix, path)
	if len(full) > MaxSubscribePathLength {
		m.log.Error("init topic rejected", "topic", full, "error", ErrPathTooLong)
		return
	}
	for i := range m.initTopics {
		if m.initTopics[i].path == full {
			m.initTopics[i].value = value
			return
		}
	}
	m.initTopics = append(m.initTopics, initTopic{path: full, value: value})
}

// RegisterReceiver adds an inbound message receiver. Receivers are
// notified in registration order; there is no unregistration.
func (m *Manager) RegisterReceiver(r Receiver) {
	m.mu.Lock()
	m.receivers = append(m.receivers, r)
	m.mu.Unlock()
}

// AddReconnectedCallback registers a callback invoked after every
// successful (re)connect, in registration order.
func (m *Manager) AddReconnectedCallback(cb func()) {
	m.reconnectListeners = append(m.reconnectListeners, cb)
}

// SetKeepAliveCallback registers a callback pumped alongside the
// transport while the handshake wait blocks the tick.
func (m *Manager) SetKeepAliveCallback(cb func()) {
	m.keepAlive = cb
}

// PublishPresenceDetection stages a presence CSV payload for the next
// steady-state tick. At most one value is pending; last write wins.
func (m *Manager) PublishPresenceDetection(csv string) {
	m.mu.Lock()
	m.presencePayload = csv
	m.presencePending = true
	m.mu.Unlock()
}

// DisableAutoRestarts turns off watchdog escalation for this process.
func (m *Manager) DisableAutoRestarts() {
	m.autoRestarts = false
}

// DisableMQTT stops session supervision; subsequent ticks only pump the
// transport.
func (m *Manager) DisableMQTT() {
	m.mqttEnabled = false
	m.device.MQTTDisconnect(true)
	m.state = StateDisconnected
}

// ConnectionState returns the current session state.
func (m *Manager) ConnectionState() ConnectionState {
	return m.state
}

// EncryptionSupported reports whether the transport can carry TLS.
func (m *Manager) EncryptionSupported() bool {
	return m.device.SupportsEncryption()
}

// NetworkDeviceName returns the transport variant name.
func (m *Manager) NetworkDeviceName() string {
	return m.device.DeviceName()
}

// LockPath returns the configured lock topic prefix.
func (m *Manager) LockPath() string {
	return m.lockPath
}
