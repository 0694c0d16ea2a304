package transport

import "testing"

func TestResolveDeviceType(t *testing.T) {
	tests := []struct {
		name             string
		hardware         int
		markerPresent    bool
		fallbackDisabled bool
		want             Selection
	}{
		{
			name:     "wifi selector",
			hardware: 1,
			want:     Selection{Type: DeviceWiFi},
		},
		{
			name:     "generic w5500",
			hardware: 2,
			want:     Selection{Type: DeviceW5500},
		},
		{
			name:     "m5stack atom poe",
			hardware: 3,
			want:     Selection{Type: DeviceW5500M5},
		},
		{
			name:     "olimex lan8720",
			hardware: 4,
			want:     Selection{Type: DeviceOlimexLAN8720},
		},
		{
			name:     "wt32-eth01",
			hardware: 5,
			want:     Selection{Type: DeviceWT32LAN8720},
		},
		{
			name:     "m5stack poesp32",
			hardware: 6,
			want:     Selection{Type: DeviceM5PoESP32},
		},
		{
			name:     "lilygo t-eth-poe",
			hardware: 7,
			want:     Selection{Type: DeviceLilyGOTETHPOE},
		},
		{
			name:     "zero selector falls back to wifi",
			hardware: 0,
			want:     Selection{Type: DeviceWiFi},
		},
		{
			name:     "unknown selector falls back to wifi",
			hardware: 99,
			want:     Selection{Type: DeviceWiFi},
		},
		{
			name:          "marker forces wifi over wired selector",
			hardware:      4,
			markerPresent: true,
			want:          Selection{Type: DeviceWiFi, Fallback: true},
		},
		{
			name:             "marker with fallback disabled requires restart",
			hardware:         4,
			markerPresent:    true,
			fallbackDisabled: true,
			want:             Selection{RestartRequired: true},
		},
		{
			name:             "fallback disabled without marker is ignored",
			hardware:         2,
			fallbackDisabled: true,
			want:             Selection{Type: DeviceW5500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDeviceType(tt.hardware, tt.markerPresent, tt.fallbackDisabled)
			if got != tt.want {
				t.Errorf("ResolveDeviceType(%d, %v, %v) = %+v, want %+v",
					tt.hardware, tt.markerPresent, tt.fallbackDisabled, got, tt.want)
			}
		})
	}
}

func TestDeviceTypeString(t *testing.T) {
	if got := DeviceWiFi.String(); got != "Wi-Fi" {
		t.Errorf("DeviceWiFi.String() = %q", got)
	}
	if got := DeviceUnknown.String(); got != "Unknown" {
		t.Errorf("DeviceUnknown.String() = %q", got)
	}
}

func TestDeviceTypeWireless(t *testing.T) {
	if !DeviceWiFi.Wireless() {
		t.Error("DeviceWiFi.Wireless() = false, want true")
	}
	for _, d := range []DeviceType{DeviceW5500, DeviceOlimexLAN8720, DeviceWT32LAN8720, DeviceM5PoESP32, DeviceLilyGOTETHPOE} {
		if d.Wireless() {
			t.Errorf("%v.Wireless() = true, want false", d)
		}
	}
}
