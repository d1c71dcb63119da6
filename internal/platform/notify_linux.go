//go:build linux

package platform

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"
)

// linuxHints builds the freedesktop hints for opts. Low urgency messages are
// marked transient so they do not pile up in the notification history.
func linuxHints(opts Options) map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(opts.Urgency)),
		"desktop-entry": dbus.MakeVariant("mangareader"),
	}
	if opts.Urgency == UrgencyLow {
		hints["transient"] = dbus.MakeVariant(true)
	}
	return hints
}

// Notify sends a notification to the session bus notification daemon.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("session bus: %w", err)
	}
	defer conn.Close()

	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.Call(notifyDest+".Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, linuxHints(opts), opts.timeout())
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}
