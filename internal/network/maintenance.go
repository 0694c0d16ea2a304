package network

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/lockbridge/lockbridge/internal/gpio"
	"github.com/lockbridge/lockbridge/internal/prefs"
	"github.com/lockbridge/lockbridge/internal/transport"
)

// publishMaintenance runs the steady-state periodic publishes: the staged
// presence payload, RSSI on its interval, the 30-second maintenance
// block, the one-shot version topic, the daily update check and the
// debounced GPIO input states.
func (m *Manager) publishMaintenance(now time.Time) {
	m.flushPresence()
	m.publishRSSI(now)

	if now.Sub(m.lastMaintenance) >= maintenanceInterval {
		m.lastMaintenance = now

		uptimeMinutes := int64(now.Sub(m.startTime) / time.Minute)
		m.PublishULong(m.lockPath, TopicUptime, uint64(uptimeMinutes))

		heap := freeHeapBytes()
		if m.publishDebug {
			m.PublishULong(m.lockPath, TopicFreeHeap, heap)
			if m.restartReason != "" {
				m.PublishString(m.lockPath, TopicRestartReason, m.restartReason)
			}
		}

		if m.telemetry != nil {
			m.telemetry.RecordTelemetry(m.device.SignalStrength(), uptimeMinutes, heap)
		}
	}

	if !m.versionPublished {
		m.versionPublished = m.PublishString(m.lockPath, TopicHubVersion, m.version)
	}

	if m.checkUpdates && now.Sub(m.lastUpdateCheck) >= updateCheckInterval {
		m.lastUpdateCheck = now
		m.checkForUpdates()
	}

	m.flushGPIOInputs(now)
}

// flushPresence publishes the staged presence CSV, if any. The slot is
// cleared before publishing; a failed publish is logged and the payload
// dropped, the next detection cycle stages a fresh one.
func (m *Manager) flushPresence() {
	m.mu.Lock()
	pending := m.presencePending
	payload := m.presencePayload
	m.presencePending = false
	m.presencePayload = ""
	m.mu.Unlock()

	if !pending {
		return
	}
	if !m.PublishString(m.lockPath, TopicPresence, payload) {
		m.log.Warn("presence publish failed")
	}
}

// publishRSSI publishes the signal strength on its configured interval,
// and only when the reading differs from the last value actually
// published. A stable signal stays quiet.
func (m *Manager) publishRSSI(now time.Time) {
	if m.rssiInterval <= 0 || now.Sub(m.lastRSSIPublish) < m.rssiInterval {
		return
	}
	m.lastRSSIPublish = now

	rssi := m.device.SignalStrength()
	if rssi == transport.SignalStrengthUnsupported {
		return
	}
	if m.rssiPublished && rssi == m.lastPublishedRSSI {
		return
	}

	m.PublishInt(m.lockPath, TopicWiFiRSSI, int(rssi))
	m.lastPublishedRSSI = rssi
	m.rssiPublished = true
}

// flushGPIOInputs publishes the state of input pins whose debounce
// interval has elapsed since their last edge.
func (m *Manager) flushGPIOInputs(now time.Time) {
	if m.gpio == nil {
		return
	}

	m.mu.Lock()
	var ready []int
	for pin, ts := range m.debounce {
		if now.Sub(ts) >= gpio.DebounceInterval {
			ready = append(ready, pin)
			delete(m.debounce, pin)
		}
	}
	m.mu.Unlock()

	for _, pin := range ready {
		m.PublishBool(m.lockPath, gpioStateTopic(pin), m.gpio.DigitalRead(pin))
	}
}

// checkForUpdates fetches the latest-release tag and publishes it when it
// changed since the last check. Runs inline and blocks the tick; the
// 24-hour cadence makes that acceptable.
func (m *Manager) checkForUpdates() {
	resp, err := m.httpClient.Get(m.updateURL)
	if err != nil {
		m.log.Warn("update check failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		m.log.Warn("update check failed", "status", resp.StatusCode)
		return
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		m.log.Warn("update check response malformed", "error", err)
		return
	}
	if release.TagName == "" || release.TagName == m.prefs.GetString(prefs.KeyLatestVersion) {
		return
	}

	m.PublishString(m.lockPath, TopicHubLatest, release.TagName)
	if err := m.prefs.PutString(prefs.KeyLatestVersion, release.TagName); err != nil {
		m.log.Error("persisting latest version", "error", err)
	}
	m.log.Info("new release available", "version", release.TagName)
}

// freeHeapBytes approximates the memory the runtime holds ready for
// allocation.
func freeHeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapIdle - ms.HeapReleased
}
