package discovery

import "github.com/lockbridge/lockbridge/internal/prefs"

// entity is one Home Assistant entity definition. The fields map holds
// the entity-specific abbreviated keys merged over the shared blocks.
type entity struct {
	component string
	name      string
	title     string
	enabled   bool
	fields    map[string]any
}

// entities returns the full entity set with capability gating applied.
// Disabled entries stay in the list so their paths can be tombstoned.
func (a *Assembler) entities() []entity {
	keypad := a.prefs.GetBool(prefs.KeyHassKeypad)
	doorSensor := a.prefs.GetBool(prefs.KeyHassDoorSensor)
	led := a.prefs.GetBool(prefs.KeyHassLEDBrightness)
	sound := a.prefs.GetBool(prefs.KeyHassSoundLevel)
	updates := a.prefs.GetBool(prefs.KeyCheckUpdates)

	return []entity{
		{
			component: "lock", name: "smartlock", title: "Smart Lock", enabled: true,
			fields: map[string]any{
				"stat_t":        "~/lock/state",
				"cmd_t":         "~/lock/action",
				"pl_lock":       "lock",
				"pl_unlk":       "unlock",
				"pl_open":       "unlatch",
				"stat_locked":   "locked",
				"stat_unlocked": "unlocked",
				"stat_jam":      "motorBlocked",
				"opt":           false,
			},
		},
		{
			component: "binary_sensor", name: "battery_low", title: "Battery Low", enabled: true,
			fields: map[string]any{
				"stat_t":  "~/battery/critical",
				"dev_cla": "battery",
				"pl_on":   "1",
				"pl_off":  "0",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "battery_voltage", title: "Battery Voltage", enabled: true,
			fields: map[string]any{
				"stat_t":      "~/battery/voltage",
				"dev_cla":     "voltage",
				"stat_cla":    "measurement",
				"unit_of_meas": "V",
				"ent_cat":     "diagnostic",
			},
		},
		{
			component: "binary_sensor", name: "keypad_battery_low", title: "Keypad Battery Low", enabled: keypad,
			fields: map[string]any{
				"stat_t":  "~/battery/keypadCritical",
				"dev_cla": "battery",
				"pl_on":   "1",
				"pl_off":  "0",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "trigger", title: "Last Trigger", enabled: true,
			fields: map[string]any{
				"stat_t":  "~/lock/trigger",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "binary_sensor", name: "mqtt_connected", title: "MQTT Connected", enabled: true,
			fields: map[string]any{
				"stat_t":  "~/mqtt/connectionState",
				"dev_cla": "connectivity",
				"pl_on":   "online",
				"pl_off":  "offline",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "button", name: "reset", title: "Restart Bridge", enabled: true,
			fields: map[string]any{
				"cmd_t":   "~/maintenance/reset",
				"pl_prs":  "1",
				"dev_cla": "restart",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "hub_version", title: "Bridge Version", enabled: true,
			fields: map[string]any{
				"stat_t":  "~/maintenance/info_hub_version",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "hub_latest", title: "Latest Release", enabled: updates,
			fields: map[string]any{
				"stat_t":  "~/maintenance/info_hub_latest",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "hub_ip", title: "Bridge IP", enabled: true,
			fields: map[string]any{
				"stat_t":  "~/maintenance/info_hub_ip",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "sensor", name: "wifi_signal_strength", title: "Wi-Fi Signal", enabled: a.opts.RSSISupported,
			fields: map[string]any{
				"stat_t":      "~/maintenance/wifi_rssi",
				"dev_cla":     "signal_strength",
				"stat_cla":    "measurement",
				"unit_of_meas": "dBm",
				"ent_cat":     "diagnostic",
			},
		},
		{
			component: "binary_sensor", name: "door_sensor", title: "Door", enabled: doorSensor,
			fields: map[string]any{
				"stat_t":  "~/door/state",
				"dev_cla": "door",
				"pl_on":   "doorOpened",
				"pl_off":  "doorClosed",
			},
		},
		{
			component: "number", name: "led_brightness", title: "LED Brightness", enabled: led,
			fields: map[string]any{
				"stat_t":  "~/led/brightness",
				"cmd_t":   "~/led/brightness/set",
				"min":     0,
				"max":     5,
				"ent_cat": "config",
			},
		},
		{
			component: "number", name: "sound_level", title: "Sound Level", enabled: sound,
			fields: map[string]any{
				"stat_t":  "~/sound/level",
				"cmd_t":   "~/sound/level/set",
				"min":     0,
				"max":     255,
				"ent_cat": "config",
			},
		},
		{
			component: "button", name: "query_lockstate", title: "Query Lock State", enabled: true,
			fields: map[string]any{
				"cmd_t":   "~/query/lockstate",
				"pl_prs":  "1",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "button", name: "query_battery", title: "Query Battery", enabled: true,
			fields: map[string]any{
				"cmd_t":   "~/query/battery",
				"pl_prs":  "1",
				"ent_cat": "diagnostic",
			},
		},
		{
			component: "button", name: "query_keypad", title: "Query Keypad", enabled: keypad,
			fields: map[string]any{
				"cmd_t":   "~/query/keypad",
				"pl_prs":  "1",
				"ent_cat": "diagnostic",
			},
		},
	}
}
