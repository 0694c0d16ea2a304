package network

import (
	"os"

	"github.com/lockbridge/lockbridge/internal/infrastructure/logging"
	"github.com/lockbridge/lockbridge/internal/prefs"
)

// RestartReason identifies why the session manager requested a restart.
// The reason is persisted before restarting so the next boot can publish
// it for post-mortem correlation.
type RestartReason int

// Restart reasons.
const (
	RestartReasonUnknown RestartReason = iota
	RestartReasonNetworkTimeoutWatchdog
	RestartReasonDisconnectWatchdog
	RestartReasonNetworkDeviceCriticalFailure
	RestartReasonNetworkDeviceCriticalFailureNoWifiFallback
)

// String returns the persisted diagnostic name for the reason.
func (r RestartReason) String() string {
	switch r {
	case RestartReasonNetworkTimeoutWatchdog:
		return "NetworkTimeoutWatchdog"
	case RestartReasonDisconnectWatchdog:
		return "DisconnectWatchdog"
	case RestartReasonNetworkDeviceCriticalFailure:
		return "NetworkDeviceCriticalFailure"
	case RestartReasonNetworkDeviceCriticalFailureNoWifiFallback:
		return "NetworkDeviceCriticalFailureNoWifiFallback"
	default:
		return "Unknown"
	}
}

// Restarter performs a full device restart. It is the session manager's
// only escalation path for stuck states.
type Restarter interface {
	// Restart persists the reason and restarts the process. It does not
	// return.
	Restart(reason RestartReason)
}

// ProcessRestarter restarts by terminating the process with a non-zero
// exit code; the service supervisor brings it back up.
type ProcessRestarter struct {
	Prefs *prefs.Store
	Log   *logging.Logger

	// exit overrides process termination in tests. Nil means os.Exit.
	exit func(code int)
}

// Restart implements Restarter.
func (p *ProcessRestarter) Restart(reason RestartReason) {
	if p.Prefs != nil {
		if err := p.Prefs.PutString(prefs.KeyRestartReason, reason.String()); err != nil {
			p.Log.Error("persisting restart reason", "error", err)
		}
		if err := p.Prefs.Close(); err != nil {
			p.Log.Error("closing preference store", "error", err)
		}
	}
	p.Log.Warn("restarting device", "reason", reason.String())

	exit := p.exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
}
