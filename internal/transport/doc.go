// Package transport abstracts the network device carrying the MQTT session.
//
// The Device interface is the uniform capability set the session manager
// drives: link management, the MQTT primitives, signal strength and local
// address. PahoDevice is the production implementation over
// paho.mqtt.golang; the hardware variants differ only in name and signal
// strength support, since chip bring-up is the host OS's concern.
//
// The package also owns boot-time device selection: ResolveDeviceType maps
// the persisted hardware selector and the restart-surviving fallback
// marker to the variant for this boot.
package transport
