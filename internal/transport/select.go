package transport

// Selection is the outcome of device-type resolution at boot.
type Selection struct {
	// Type is the transport variant to bring up.
	Type DeviceType

	// Fallback indicates the variant was forced to Wi-Fi by the marker
	// rather than chosen by the hardware selector.
	Fallback bool

	// RestartRequired indicates the marker was present but Wi-Fi fallback
	// is disabled: the caller must clear the marker and restart instead of
	// bringing up any transport. Clearing first avoids a fallback loop.
	RestartRequired bool
}

// ResolveDeviceType maps the persisted hardware selector and the fallback
// marker state to the transport variant for this boot.
//
// The decision is a pure function of its inputs:
//   - marker present + fallback disabled: restart required, no transport.
//   - marker present + fallback allowed: Wi-Fi, regardless of selector.
//   - otherwise: the selector's variant; zero or unknown selectors resolve
//     to Wi-Fi.
//
// Parameters:
//   - hardware: Persisted hardware selector (1..7; see DeviceType values)
//   - markerPresent: Whether the Wi-Fi fallback marker is set
//   - fallbackDisabled: The "Wi-Fi fallback disabled" preference
//
// Returns:
//   - Selection: Resolved variant and restart/fallback flags
func ResolveDeviceType(hardware int, markerPresent, fallbackDisabled bool) Selection {
	if markerPresent {
		if fallbackDisabled {
			return Selection{RestartRequired: true}
		}
		return Selection{Type: DeviceWiFi, Fallback: true}
	}

	switch hardware {
	case 2:
		return Selection{Type: DeviceW5500}
	case 3:
		return Selection{Type: DeviceW5500M5}
	case 4:
		return Selection{Type: DeviceOlimexLAN8720}
	case 5:
		return Selection{Type: DeviceWT32LAN8720}
	case 6:
		return Selection{Type: DeviceM5PoESP32}
	case 7:
		return Selection{Type: DeviceLilyGOTETHPOE}
	default:
		return Selection{Type: DeviceWiFi}
	}
}
