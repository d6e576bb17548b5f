package watcher

import (
	"github.com/gen2brain/beeep"

	"github.com/docxmark/internal/logger"
)

// Notifier tells the user a watched file was converted
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier shows an OS notification
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }

func notify(n Notifier, title, message string) {
	if err := n.Notify(title, message); err != nil {
		logger.Warnf("Failed to send OS notification: %v", err)
	}
}
