// Lock Bridge - smart lock MQTT bridge
//
// The bridge supervises an MQTT session to the configured broker,
// republishes lock and device state as retained topics, accepts GPIO
// output commands, and announces the lock to Home Assistant through MQTT
// discovery.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lockbridge/lockbridge/migrations"

	"github.com/lockbridge/lockbridge/internal/discovery"
	"github.com/lockbridge/lockbridge/internal/gpio"
	"github.com/lockbridge/lockbridge/internal/history"
	"github.com/lockbridge/lockbridge/internal/infrastructure/config"
	"github.com/lockbridge/lockbridge/internal/infrastructure/database"
	"github.com/lockbridge/lockbridge/internal/infrastructure/influxdb"
	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
	"github.com/lockbridge/lockbridge/internal/network"
	"github.com/lockbridge/lockbridge/internal/prefs"
	"github.com/lockbridge/lockbridge/internal/transport"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting lock bridge", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	store, err := prefs.Open(cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("opening preference store: %w", err)
	}
	defer store.Close()

	// Resolve the transport variant for this boot. The fallback marker
	// survives restarts; a critical transport failure on the previous run
	// forces Wi-Fi here.
	marker := transport.NewFallbackMarker(cfg.Network.FallbackMarkerPath)
	hardware := store.GetInt(prefs.KeyNetworkHardware)
	if hardware == 0 {
		hardware = 1
		if err := store.PutInt(prefs.KeyNetworkHardware, hardware); err != nil {
			log.Error("persisting hardware selector", "error", err)
		}
	}
	sel := transport.ResolveDeviceType(
		hardware,
		marker.Present(),
		store.GetBool(prefs.KeyWiFiFallbackOff),
	)
	if sel.RestartRequired {
		// Clear first so the next boot does not loop back here.
		if err := marker.Clear(); err != nil {
			log.Error("clearing fallback marker", "error", err)
		}
		reason := network.RestartReasonNetworkDeviceCriticalFailureNoWifiFallback
		if err := store.PutString(prefs.KeyRestartReason, reason.String()); err != nil {
			log.Error("persisting restart reason", "error", err)
		}
		return errors.New("transport failed and wifi fallback is disabled, restarting")
	}
	if sel.Fallback {
		log.Warn("running on wifi fallback after transport failure")
	}

	hostname := store.GetString(prefs.KeyHostname)
	if hostname == "" {
		hostname = "lockbridge"
	}

	device := transport.NewPahoDevice(transport.DeviceConfig{
		Type:      sel.Type,
		Hostname:  hostname,
		Interface: cfg.Network.Interface,
	})
	log.Info("transport selected", "device", device.DeviceName(), "fallback", sel.Fallback)

	opts := network.ManagerOptions{
		Device:    device,
		Prefs:     store,
		GPIO:      gpio.NewMemory(nil),
		Marker:    marker,
		Restarter: &network.ProcessRestarter{Prefs: store, Log: log},
		Logger:    log.With("component", "network"),
		Version:   version,
	}

	// Optional telemetry sink.
	influx, err := influxdb.Connect(cfg.InfluxDB, hostname)
	switch {
	case err == nil:
		influx.SetOnError(func(err error) {
			log.Warn("influxdb write failed", "error", err)
		})
		defer influx.Close()
		opts.Telemetry = influx
		log.Info("influxdb telemetry enabled", "url", cfg.InfluxDB.URL)
	case errors.Is(err, influxdb.ErrDisabled):
		// telemetry off
	default:
		log.Warn("influxdb unavailable, telemetry disabled", "error", err)
	}

	mgr := network.NewManager(opts)

	// Optional message journal, registered as a dispatch receiver.
	if cfg.History.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating history database: %w", err)
		}
		mgr.RegisterReceiver(history.New(db, cfg.History.MaxRows, log.With("component", "history")))
		log.Info("message journal enabled", "path", cfg.History.Path)
	}

	mgr.Initialize()

	uid, err := deviceUID(store)
	if err != nil {
		return fmt.Errorf("resolving device uid: %w", err)
	}
	asm := discovery.New(mgr, store, log.With("component", "discovery"), discovery.Options{
		UID:           uid,
		LockPath:      mgr.LockPath(),
		Hostname:      hostname,
		DeviceModel:   device.DeviceName(),
		Version:       version,
		RSSISupported: sel.Type.Wireless(),
	})
	if asm.Enabled() {
		mgr.AddReconnectedCallback(asm.PublishConfigs)
		log.Info("home assistant discovery enabled")
	}

	ticker := time.NewTicker(cfg.GetTickInterval())
	defer ticker.Stop()

	log.Info("lock bridge running")
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			mgr.PublishString(mgr.LockPath(), network.TopicMQTTConnectionState, "offline")
			mgr.DisableMQTT()
			return nil
		case <-ticker.C:
			mgr.Update()
		}
	}
}

// deviceUID returns the persisted stable device id, generating one on
// first boot.
func deviceUID(store *prefs.Store) (string, error) {
	if id := store.GetString(prefs.KeyDeviceID); id != "" {
		return id, nil
	}

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating device id: %w", err)
	}
	id := fmt.Sprintf("lockbridge_%X", buf)
	return id, store.PutString(prefs.KeyDeviceID, id)
}

// getConfigPath returns the config file path: first CLI argument, then
// the LOCKBRIDGE_CONFIG environment variable, then the default.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if p := os.Getenv("LOCKBRIDGE_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}
