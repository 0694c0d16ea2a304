package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
	"github.com/lockbridge/lockbridge/internal/prefs"
)

// Publisher is the outbound publish surface the assembler writes through.
// The session manager satisfies it.
type Publisher interface {
	PublishString(prefix, topic, value string) bool
}

// PreferenceStore is the read-only preference slice gating entities.
type PreferenceStore interface {
	GetString(key string) string
	GetBool(key string) bool
}

// Options describes the bridge being announced.
type Options struct {
	// UID is the stable unique id, the persisted device id.
	UID string

	// LockPath is the lock topic prefix all state topics hang off.
	LockPath string

	// Hostname is the human-visible device name.
	Hostname string

	// DeviceModel is the transport variant name.
	DeviceModel string

	// Version is the bridge software version.
	Version string

	// RSSISupported gates the signal strength sensor.
	RSSISupported bool
}

// Assembler publishes the discovery document set.
type Assembler struct {
	pub   Publisher
	prefs PreferenceStore
	log   *logging.Logger
	opts  Options

	// discoveryPrefix is the Home Assistant discovery root, usually
	// "homeassistant". Empty disables discovery entirely.
	discoveryPrefix string
}

// New creates an assembler. The discovery prefix is read from the
// preference store; when it is empty the assembler publishes nothing.
func New(pub Publisher, store PreferenceStore, log *logging.Logger, opts Options) *Assembler {
	return &Assembler{
		pub:             pub,
		prefs:           store,
		log:             log,
		opts:            opts,
		discoveryPrefix: store.GetString(prefs.KeyHassDiscovery),
	}
}

// Enabled reports whether discovery is configured.
func (a *Assembler) Enabled() bool {
	return a.discoveryPrefix != ""
}

// PublishConfigs publishes the config document for every enabled entity
// and a tombstone for every disabled one. Retained, so Home Assistant
// picks the set up whenever it (re)starts.
func (a *Assembler) PublishConfigs() {
	if !a.Enabled() {
		return
	}

	for _, e := range a.entities() {
		topic := a.configTopic(e)
		if !e.enabled {
			a.pub.PublishString(a.discoveryPrefix, topic, "")
			continue
		}

		doc := a.document(e)
		payload, err := json.Marshal(doc)
		if err != nil {
			a.log.Error("marshalling discovery document", "entity", e.name, "error", err)
			continue
		}
		if !a.pub.PublishString(a.discoveryPrefix, topic, string(payload)) {
			a.log.Warn("publishing discovery document failed", "entity", e.name)
		}
	}
}

// RemoveConfigs tombstones the full entity set, removing the device from
// Home Assistant.
func (a *Assembler) RemoveConfigs() {
	if !a.Enabled() {
		return
	}
	for _, e := range a.entities() {
		a.pub.PublishString(a.discoveryPrefix, a.configTopic(e), "")
	}
}

// configTopic returns the document path relative to the discovery prefix.
func (a *Assembler) configTopic(e entity) string {
	return fmt.Sprintf("%s/%s/%s/config", e.component, a.opts.UID, e.name)
}

// document assembles one entity's config with the shared device and
// availability blocks merged in.
func (a *Assembler) document(e entity) map[string]any {
	doc := map[string]any{
		"~":        a.opts.LockPath,
		"name":     e.title,
		"uniq_id":  a.opts.UID + "_" + e.name,
		"avty_t":   "~/mqtt/connectionState",
		"pl_avail": "online",
		"pl_not_avail": "offline",
		"dev": a.deviceBlock(),
	}
	for k, v := range e.fields {
		doc[k] = v
	}
	return doc
}

// deviceBlock is the shared HA device object tying all entities to one
// registry device.
func (a *Assembler) deviceBlock() map[string]any {
	dev := map[string]any{
		"ids":  []string{a.opts.UID},
		"name": a.opts.Hostname,
		"mf":   "lockbridge",
		"mdl":  a.opts.DeviceModel,
		"sw":   a.opts.Version,
	}
	if cu := a.prefs.GetString(prefs.KeyHassConfigURL); cu != "" {
		dev["cu"] = cu
	}
	return dev
}
