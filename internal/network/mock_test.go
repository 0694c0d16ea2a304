package network

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
	"github.com/lockbridge/lockbridge/internal/prefs"
	"github.com/lockbridge/lockbridge/internal/transport"
)

// testClock is a manually advanced clock shared by the manager's now and
// sleep seams, so the blocking handshake wait makes progress in tests.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Sleep(d time.Duration)   { c.t = c.t.Add(d) }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// publishRecord is one observed MQTTPublish call.
type publishRecord struct {
	path    string
	qos     byte
	retain  bool
	payload string
}

// mockDevice is a scriptable transport.Device.
type mockDevice struct {
	linkUp          bool
	sessionUp       bool
	connectSucceeds bool
	deferReply      bool
	reconnectResult transport.ReconnectStatus
	signal          int8
	localIP         string
	lastErr         error

	connectCalls    int
	disconnectCalls int
	updateCalls     int

	publishes  []publishRecord
	subscribes []string

	server   string
	port     int
	user     string
	password string
	clientID string
	clean    bool
	will     publishRecord

	onConnect    func(bool)
	onDisconnect func(error)
	onMessage    func(string, []byte)
}

func newMockDevice() *mockDevice {
	return &mockDevice{
		linkUp:          true,
		connectSucceeds: true,
		signal:          transport.SignalStrengthUnsupported,
		localIP:         "192.168.1.50",
	}
}

func (d *mockDevice) Initialize()      {}
func (d *mockDevice) Update()          { d.updateCalls++ }
func (d *mockDevice) IsConnected() bool { return d.linkUp }

func (d *mockDevice) Reconnect() transport.ReconnectStatus {
	if d.reconnectResult == transport.ReconnectSuccess {
		d.linkUp = true
	}
	return d.reconnectResult
}

func (d *mockDevice) MQTTConnected() bool { return d.sessionUp }

func (d *mockDevice) MQTTConnect() {
	d.connectCalls++
	if d.deferReply {
		return
	}
	if d.connectSucceeds {
		d.sessionUp = true
		if d.onConnect != nil {
			d.onConnect(false)
		}
		return
	}
	d.lastErr = errors.New("connection refused")
	if d.onDisconnect != nil {
		d.onDisconnect(d.lastErr)
	}
}

func (d *mockDevice) MQTTDisconnect(bool) {
	d.disconnectCalls++
	d.sessionUp = false
}

func (d *mockDevice) MQTTPublish(path string, qos byte, retain bool, payload string) int {
	if !d.sessionUp {
		return 0
	}
	d.publishes = append(d.publishes, publishRecord{path, qos, retain, payload})
	return len(payload)
}

func (d *mockDevice) MQTTSubscribe(path string, qos byte) uint16 {
	if !d.sessionUp {
		return 0
	}
	d.subscribes = append(d.subscribes, path)
	return uint16(len(d.subscribes))
}

func (d *mockDevice) MQTTSetCredentials(user, password string) { d.user, d.password = user, password }
func (d *mockDevice) MQTTSetServer(address string, port int)   { d.server, d.port = address, port }
func (d *mockDevice) MQTTSetClientID(id string)                { d.clientID = id }
func (d *mockDevice) MQTTSetCleanSession(clean bool)           { d.clean = clean }

func (d *mockDevice) SetWill(topic string, qos byte, retain bool, payload string) {
	d.will = publishRecord{topic, qos, retain, payload}
}

func (d *mockDevice) MQTTOnConnect(cb func(bool))                 { d.onConnect = cb }
func (d *mockDevice) MQTTOnDisconnect(cb func(error))             { d.onDisconnect = cb }
func (d *mockDevice) MQTTOnMessage(cb func(string, []byte))       { d.onMessage = cb }
func (d *mockDevice) SignalStrength() int8                        { return d.signal }
func (d *mockDevice) LocalIP() string                             { return d.localIP }
func (d *mockDevice) DeviceName() string                          { return "Wi-Fi" }
func (d *mockDevice) SupportsEncryption() bool                    { return true }
func (d *mockDevice) LastError() error                            { return d.lastErr }

// payloads returns the payloads published to a path, in order.
func (d *mockDevice) payloads(path string) []string {
	var out []string
	for _, p := range d.publishes {
		if p.path == path {
			out = append(out, p.payload)
		}
	}
	return out
}

// mockPrefs is a map-backed PreferenceStore.
type mockPrefs struct {
	m map[string]string
}

func newMockPrefs() *mockPrefs { return &mockPrefs{m: make(map[string]string)} }

func (p *mockPrefs) GetString(key string) string { return p.m[key] }

func (p *mockPrefs) GetInt(key string) int {
	v, _ := strconv.Atoi(p.m[key])
	return v
}

func (p *mockPrefs) GetBool(key string) bool { return p.m[key] == "1" }

func (p *mockPrefs) PutString(key, value string) error {
	p.m[key] = value
	return nil
}

func (p *mockPrefs) PutInt(key string, value int) error {
	p.m[key] = strconv.Itoa(value)
	return nil
}

func (p *mockPrefs) Has(key string) bool {
	_, ok := p.m[key]
	return ok
}

// mockRestarter records escalations instead of exiting.
type mockRestarter struct {
	reasons []RestartReason
}

func (r *mockRestarter) Restart(reason RestartReason) {
	r.reasons = append(r.reasons, reason)
}

// recordingReceiver captures delivered messages, tagged for order checks.
type recordingReceiver struct {
	tag      string
	messages []string
	sink     *[]string
}

func (r *recordingReceiver) OnMQTTMessage(topic string, payload []byte) {
	r.messages = append(r.messages, topic+"="+string(payload))
	if r.sink != nil {
		*r.sink = append(*r.sink, r.tag)
	}
}

// testEnv is the wired-up manager under test.
type testEnv struct {
	mgr    *Manager
	dev    *mockDevice
	prefs  *mockPrefs
	rst    *mockRestarter
	clock  *testClock
	marker *transport.FallbackMarker
}

// newTestEnv builds a manager over mocks with a configured broker. The
// clock backs both now and sleep so blocking waits advance time.
func newTestEnv(t *testing.T, opts ManagerOptions) *testEnv {
	t.Helper()

	env := &testEnv{
		dev:   newMockDevice(),
		prefs: newMockPrefs(),
		rst:   &mockRestarter{},
		clock: newTestClock(),
	}
	env.prefs.m[prefs.KeyMQTTBroker] = "broker.local"
	env.marker = transport.NewFallbackMarker(t.TempDir() + "/wifi_fallback")

	if opts.Device == nil {
		opts.Device = env.dev
	}
	if opts.Prefs == nil {
		opts.Prefs = env.prefs
	}
	if opts.Restarter == nil {
		opts.Restarter = env.rst
	}
	if opts.Marker == nil {
		opts.Marker = env.marker
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Version == "" {
		opts.Version = "1.0.0-test"
	}

	env.mgr = NewManager(opts)
	env.mgr.now = env.clock.Now
	env.mgr.sleep = env.clock.Sleep
	return env
}

// connect initializes the manager and drives it to Connected.
func (e *testEnv) connect(t *testing.T) {
	t.Helper()
	e.mgr.Initialize()
	e.mgr.Update()
	if e.mgr.ConnectionState() != StateConnected {
		t.Fatalf("ConnectionState() = %v after connect, want connected", e.mgr.ConnectionState())
	}
}
