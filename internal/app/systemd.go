package app

import (
	"fmt"

	"apptime/internal/infrastructure/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifyReady sends READY=1 to systemd. Outside systemd it does nothing.
func notifyReady(logger logging.Logger) {
	notify(logger, daemon.SdNotifyReady, "ready")
}

// notifyStopping sends STOPPING=1 to systemd
func notifyStopping(logger logging.Logger) {
	notify(logger, daemon.SdNotifyStopping, "stopping")
}

func notify(logger logging.Logger, state, name string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to send systemd %s notification", name), "error", err.Error())
		return
	}
	if sent {
		logger.Debug(fmt.Sprintf("Sent systemd %s notification", name))
	}
}
