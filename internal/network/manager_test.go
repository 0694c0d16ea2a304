package network

import (
	"testing"
	"time"

	"github.com/lockbridge/lockbridge/internal/gpio"
	"github.com/lockbridge/lockbridge/internal/prefs"
	"github.com/lockbridge/lockbridge/internal/transport"
)

func TestReconnectEmptyBrokerBacksOff(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	delete(env.prefs.m, prefs.KeyMQTTBroker)

	env.mgr.Initialize()
	start := env.clock.Now()
	env.mgr.Update()

	if env.dev.connectCalls != 0 {
		t.Errorf("connectCalls = %d, want 0 (no handshake for empty broker)", env.dev.connectCalls)
	}
	if !env.mgr.nextReconnect.Equal(start.Add(reconnectBackoff)) {
		t.Errorf("nextReconnect = %v, want %v", env.mgr.nextReconnect, start.Add(reconnectBackoff))
	}

	// Still inside the backoff: no attempt.
	env.mgr.Update()
	if env.dev.connectCalls != 0 {
		t.Errorf("connectCalls = %d during backoff, want 0", env.dev.connectCalls)
	}
}

func TestConnectSetsUpSession(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.prefs.m[prefs.KeyMQTTUser] = "locker"
	env.prefs.m[prefs.KeyMQTTPassword] = "secret"
	env.connect(t)

	if env.dev.clientID != "lockbridge" {
		t.Errorf("clientID = %q, want lockbridge", env.dev.clientID)
	}
	if env.dev.clean {
		t.Error("clean session = true, want persistent session")
	}
	if env.dev.user != "locker" || env.dev.password != "secret" {
		t.Errorf("credentials = %q/%q", env.dev.user, env.dev.password)
	}
	if env.dev.server != "broker.local" || env.dev.port != 1883 {
		t.Errorf("server = %q:%d", env.dev.server, env.dev.port)
	}

	wantWill := publishRecord{"lockbridge/lock/mqtt/connectionState", MQTTQoS, true, "offline"}
	if env.dev.will != wantWill {
		t.Errorf("will = %+v, want %+v", env.dev.will, wantWill)
	}

	if got := env.dev.payloads("lockbridge/lock/mqtt/connectionState"); len(got) != 1 || got[0] != "online" {
		t.Errorf("connectionState payloads = %v, want [online]", got)
	}
	if got := env.dev.payloads("lockbridge/lock/maintenance/info_hub_ip"); len(got) != 1 || got[0] != "192.168.1.50" {
		t.Errorf("hub ip payloads = %v", got)
	}
}

func TestCredentialsSkippedWithoutUsername(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.prefs.m[prefs.KeyMQTTPassword] = "orphaned"
	env.connect(t)

	if env.dev.user != "" || env.dev.password != "" {
		t.Errorf("credentials attached without a username: %q/%q", env.dev.user, env.dev.password)
	}
}

func TestInitTopicsPublishedExactlyOnce(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.mgr.InitTopic("custom", "boot", "42")
	env.mgr.InitTopic("custom", "boot", "43") // replaces, no duplicate
	env.connect(t)

	if got := env.dev.payloads("custom/boot"); len(got) != 1 || got[0] != "43" {
		t.Fatalf("init topic payloads after first connect = %v, want [43]", got)
	}
	if got := env.dev.payloads("lockbridge/lock/maintenance/networkDevice"); len(got) != 1 || got[0] != "Wi-Fi" {
		t.Errorf("device name payloads = %v, want [Wi-Fi]", got)
	}

	// Drop and re-establish the session twice.
	for i := 0; i < 2; i++ {
		env.dev.sessionUp = false
		env.clock.Advance(10 * time.Second)
		env.mgr.Update()
		if env.mgr.ConnectionState() != StateConnected {
			t.Fatalf("reconnect %d did not reach connected", i+1)
		}
	}

	if got := env.dev.payloads("custom/boot"); len(got) != 1 {
		t.Errorf("init topic republished across reconnects: %v", got)
	}
	if got := env.dev.payloads("lockbridge/lock/mqtt/connectionState"); len(got) != 3 {
		t.Errorf("connectionState published %d times, want every reconnect (3)", len(got))
	}
}

func TestResubscribeOrderOnEveryReconnect(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.mgr.Subscribe("p", "alpha")
	env.mgr.Subscribe("p", "beta")
	env.mgr.Subscribe("p", "gamma")
	env.connect(t)

	env.dev.sessionUp = false
	env.clock.Advance(10 * time.Second)
	env.mgr.Update()

	want := []string{"p/alpha", "p/beta", "p/gamma", "p/alpha", "p/beta", "p/gamma"}
	if len(env.dev.subscribes) != len(want) {
		t.Fatalf("subscribes = %v, want %v", env.dev.subscribes, want)
	}
	for i := range want {
		if env.dev.subscribes[i] != want[i] {
			t.Fatalf("subscribes = %v, want %v", env.dev.subscribes, want)
		}
	}
}

func TestConnectFailureBacksOffAndForcesDisconnect(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.dev.connectSucceeds = false

	env.mgr.Initialize()
	env.mgr.Update()

	if env.mgr.ConnectionState() != StateDisconnected {
		t.Errorf("state = %v after failed connect", env.mgr.ConnectionState())
	}
	if env.dev.connectCalls != 1 {
		t.Errorf("connectCalls = %d, want 1", env.dev.connectCalls)
	}
	if env.dev.disconnectCalls == 0 {
		t.Error("failed attempt did not force a clean MQTT disconnect")
	}

	// Inside the backoff no second attempt is made.
	env.mgr.Update()
	if env.dev.connectCalls != 1 {
		t.Errorf("connectCalls = %d during backoff, want 1", env.dev.connectCalls)
	}

	env.clock.Advance(reconnectBackoff + time.Second)
	env.mgr.Update()
	if env.dev.connectCalls != 2 {
		t.Errorf("connectCalls = %d after backoff, want 2", env.dev.connectCalls)
	}
}

func TestHandshakeTimeoutPumpsKeepAlive(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.dev.deferReply = true

	keepAlives := 0
	env.mgr.SetKeepAliveCallback(func() { keepAlives++ })

	env.mgr.Initialize()
	start := env.clock.Now()
	env.mgr.Update()

	if env.mgr.ConnectionState() != StateDisconnected {
		t.Errorf("state = %v after handshake timeout", env.mgr.ConnectionState())
	}
	if keepAlives == 0 {
		t.Error("keep-alive callback not pumped during handshake wait")
	}
	if elapsed := env.clock.Now().Sub(start); elapsed < handshakeTimeout {
		t.Errorf("handshake wait gave up after %v, want at least %v", elapsed, handshakeTimeout)
	}
	if env.dev.updateCalls < 100 {
		t.Errorf("transport pumped %d times during handshake, want continuous polling", env.dev.updateCalls)
	}
}

func TestNetworkTimeoutWatchdog(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.prefs.m[prefs.KeyNetworkTimeout] = "30"
	env.dev.connectSucceeds = false

	env.mgr.Initialize()
	env.mgr.Update() // first failed attempt, inside the grace period

	if len(env.rst.reasons) != 0 {
		t.Fatalf("restarted during grace period: %v", env.rst.reasons)
	}

	env.clock.Advance(61 * time.Second)
	env.mgr.Update()

	if len(env.rst.reasons) != 1 || env.rst.reasons[0] != RestartReasonNetworkTimeoutWatchdog {
		t.Errorf("restart reasons = %v, want [NetworkTimeoutWatchdog]", env.rst.reasons)
	}
}

func TestNetworkTimeoutDisabledByDefault(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.dev.connectSucceeds = false

	env.mgr.Initialize()
	env.mgr.Update()
	env.clock.Advance(24 * time.Hour)
	env.mgr.Update()

	if len(env.rst.reasons) != 0 {
		t.Errorf("restarted with timeout disabled: %v", env.rst.reasons)
	}
}

func TestDisconnectWatchdog(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.prefs.m[prefs.KeyRestartOnDisconnect] = "1"
	env.dev.linkUp = false
	env.dev.reconnectResult = transport.ReconnectFailure

	env.mgr.Initialize()
	env.mgr.Update() // inside the grace period
	if len(env.rst.reasons) != 0 {
		t.Fatalf("restarted during grace period: %v", env.rst.reasons)
	}

	env.clock.Advance(61 * time.Second)
	env.mgr.Update()

	if len(env.rst.reasons) != 1 || env.rst.reasons[0] != RestartReasonDisconnectWatchdog {
		t.Errorf("restart reasons = %v, want [DisconnectWatchdog]", env.rst.reasons)
	}
}

func TestCriticalFailureSetsMarkerAndRestarts(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.dev.linkUp = false
	env.dev.reconnectResult = transport.ReconnectCriticalFailure

	env.mgr.Initialize()
	env.mgr.Update()

	if !env.marker.Present() {
		t.Error("fallback marker not set after critical failure")
	}
	if len(env.rst.reasons) != 1 || env.rst.reasons[0] != RestartReasonNetworkDeviceCriticalFailure {
		t.Errorf("restart reasons = %v, want [NetworkDeviceCriticalFailure]", env.rst.reasons)
	}

	// Simulated next boot: the marker forces Wi-Fi over the wired selector.
	sel := transport.ResolveDeviceType(4, env.marker.Present(), false)
	if sel.Type != transport.DeviceWiFi || !sel.Fallback {
		t.Errorf("post-fallback selection = %+v, want forced Wi-Fi", sel)
	}
}

func TestLinkRecoveryClearsMarker(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	if err := env.marker.Set(); err != nil {
		t.Fatalf("seeding marker: %v", err)
	}
	env.dev.linkUp = false
	env.dev.reconnectResult = transport.ReconnectSuccess

	env.mgr.Initialize()
	env.mgr.Update()

	if env.marker.Present() {
		t.Error("marker still present after successful link recovery")
	}
}

func TestDisableAutoRestartsSuppressesWatchdogs(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.prefs.m[prefs.KeyNetworkTimeout] = "30"
	env.dev.connectSucceeds = false

	env.mgr.Initialize()
	env.mgr.DisableAutoRestarts()
	env.mgr.Update()
	env.clock.Advance(61 * time.Second)
	env.mgr.Update()

	if len(env.rst.reasons) != 0 {
		t.Errorf("restarted with auto restarts disabled: %v", env.rst.reasons)
	}
}

func TestDisableMQTTStopsSupervision(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	env.connect(t)

	env.mgr.DisableMQTT()
	if env.mgr.ConnectionState() != StateDisconnected {
		t.Errorf("state = %v after DisableMQTT", env.mgr.ConnectionState())
	}

	calls := env.dev.connectCalls
	env.clock.Advance(time.Minute)
	env.mgr.Update()
	if env.dev.connectCalls != calls {
		t.Error("supervision continued after DisableMQTT")
	}
}

func TestReconnectListenersInvokedEveryReconnect(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})

	var order []string
	env.mgr.AddReconnectedCallback(func() { order = append(order, "first") })
	env.mgr.AddReconnectedCallback(func() { order = append(order, "second") })
	env.connect(t)

	env.dev.sessionUp = false
	env.clock.Advance(10 * time.Second)
	env.mgr.Update()

	want := []string{"first", "second", "first", "second"}
	if len(order) != len(want) {
		t.Fatalf("listener invocations = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("listener invocations = %v, want %v", order, want)
		}
	}
}

func TestGPIOTopicSetup(t *testing.T) {
	pins := gpio.NewMemory([]gpio.PinEntry{
		{Pin: 4, Role: gpio.RoleInputPullDown},
		{Pin: 5, Role: gpio.RoleOutput},
	})
	env := newTestEnv(t, ManagerOptions{GPIO: pins})
	env.connect(t)

	// Output pin command topic is subscribed.
	found := false
	for _, s := range env.dev.subscribes {
		if s == "lockbridge/lock/gpio/pin_05/state" {
			found = true
		}
	}
	if !found {
		t.Errorf("output pin state topic not subscribed: %v", env.dev.subscribes)
	}

	// Role topics and the input pin state are published as init topics.
	if got := env.dev.payloads("lockbridge/lock/gpio/pin_04/role"); len(got) != 1 {
		t.Errorf("pin 4 role payloads = %v", got)
	}
	if got := env.dev.payloads("lockbridge/lock/gpio/pin_04/state"); len(got) != 1 || got[0] != "0" {
		t.Errorf("pin 4 state payloads = %v, want [0]", got)
	}

	// The configuration hash is persisted for rebuild detection.
	if !env.prefs.Has(prefs.KeyGPIOTopicHash) {
		t.Error("gpio topic hash not persisted")
	}
}

func TestGPIOTopicsNotRebuiltWhenUnchanged(t *testing.T) {
	pins := gpio.NewMemory([]gpio.PinEntry{{Pin: 4, Role: gpio.RoleInputPullDown}})
	env := newTestEnv(t, ManagerOptions{GPIO: pins})
	env.connect(t)

	// Second manager over the same preference store, same configuration.
	env2 := newTestEnv(t, ManagerOptions{GPIO: pins, Prefs: env.prefs})
	env2.connect(t)

	if got := env2.dev.payloads("lockbridge/lock/gpio/pin_04/role"); len(got) != 0 {
		t.Errorf("role topic republished for unchanged configuration: %v", got)
	}
}

func TestSubscribeRejectsOverlongPath(t *testing.T) {
	env := newTestEnv(t, ManagerOptions{})
	long := make([]byte, MaxSubscribePathLength+1)
	for i := range long {
		long[i] = 'x'
	}
	env.mgr.Subscribe(string(long), "leaf")

	if len(env.mgr.subscribedTopics) != 0 {
		t.Error("overlong subscription accepted")
	}
}
