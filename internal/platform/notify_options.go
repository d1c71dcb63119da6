// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "errors"

// ErrUnsupported is returned where the host has no notification service.
var ErrUnsupported = errors.New("desktop notifications not supported on this platform")

// Urgency mirrors the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// AppName is reported to the notification service as the sender.
const AppName = "Manga Reader"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	Urgency  Urgency
	// TimeoutMS is how long the notification stays visible; 0 uses 5s.
	TimeoutMS int32
}

func (o Options) timeout() int32 {
	if o.TimeoutMS <= 0 {
		return 5000
	}
	return o.TimeoutMS
}
