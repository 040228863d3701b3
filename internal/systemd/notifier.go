// Package systemd reports service state to systemd through sd_notify.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier sends readiness, status and watchdog messages. Outside of systemd
// (no NOTIFY_SOCKET) every call is a no-op.
type Notifier struct {
	notify   notifyFunc
	watchdog func(unsetEnvironment bool) (time.Duration, error)
	logger   *slog.Logger
}

// NewNotifier creates a notifier bound to the process environment.
func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{
		notify:   daemon.SdNotify,
		watchdog: daemon.SdWatchdogEnabled,
		logger:   logger,
	}
}

// Ready tells systemd that startup finished.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping tells systemd that shutdown began.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

// RunWatchdog pings the watchdog at half the configured interval for as long
// as alive succeeds. It returns immediately when the unit has no WatchdogSec.
// A failing alive check withholds the ping so systemd restarts the service.
func (n *Notifier) RunWatchdog(ctx context.Context, alive func(context.Context) error) {
	interval, err := n.watchdog(false)
	if err != nil {
		n.logger.Warn("Cannot read watchdog settings", "error", err)
		return
	}
	if interval <= 0 {
		return
	}

	period := interval / 2
	n.logger.Info("Watchdog enabled", "interval", interval)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, period)
			err := alive(checkCtx)
			cancel()
			if err != nil {
				n.logger.Error("Liveness check failed, withholding watchdog ping", "error", err)
				continue
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify", "state", state)
	}
}
