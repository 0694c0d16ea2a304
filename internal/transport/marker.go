package transport

import (
	"os"
	"path/filepath"
	"strings"
)

// markerValue is the literal written to the fallback marker. Only this
// exact value counts as a marker; anything else is treated as absent.
const markerValue = "wifi_fallback"

// markerPermissions is the permission mode for the marker file.
const markerPermissions = 0600

// FallbackMarker is the restart-surviving flag that forces the next boot
// onto the Wi-Fi transport after a critical transport failure.
//
// On the original hardware this lives in a noinit RAM region that survives
// reset but not power loss; here it is a small file that survives process
// restarts and is removed once consumed.
type FallbackMarker struct {
	path string
}

// NewFallbackMarker returns a marker store at the given path.
func NewFallbackMarker(path string) *FallbackMarker {
	return &FallbackMarker{path: path}
}

// Present reports whether the marker is set.
func (m *FallbackMarker) Present() bool {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == markerValue
}

// Set writes the marker so the next boot falls back to Wi-Fi.
func (m *FallbackMarker) Set() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0750); err != nil {
		return err
	}
	return os.WriteFile(m.path, []byte(markerValue), markerPermissions)
}

// Clear removes the marker. Clearing an absent marker is not an error.
func (m *FallbackMarker) Clear() error {
	err := os.Remove(m.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
