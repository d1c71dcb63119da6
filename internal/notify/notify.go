// Package notify turns reader events into desktop notifications.
package notify

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"github.com/example/mangareader/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventError fires when a page fails to load.
	EventError Event = "error"
	// EventOpen fires when a page is opened.
	EventOpen Event = "open"
	// EventCopy fires when a page is copied to the clipboard.
	EventCopy Event = "copy"
)

// previewSize bounds the longer side of the icon attached to open events.
const previewSize = 128

// previewLifetime is how long a preview icon outlives the notification
// request. Notification daemons read the icon file asynchronously.
const previewLifetime = 30 * time.Second

var (
	// send is swapped in tests.
	send = platform.Notify
	// removeLater schedules fn after d.
	removeLater = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
	Urgency  platform.Urgency
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Manga Reader",
		Events: map[Event]EventPreference{
			EventError: {Template: "Could not open %s", Urgency: platform.UrgencyCritical},
			EventOpen:  {Template: "Opened %s", Urgency: platform.UrgencyLow},
			EventCopy:  {Template: "Copied %s to clipboard", Urgency: platform.UrgencyLow},
		},
	}
}

// LoadPreferences reads overrides from environment variables.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("MANGAREADER_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			p := prefs.Events[event]
			p.Template = v
			prefs.Events[event] = p
		}
	}
	apply("MANGAREADER_NOTIFY_ERROR_TEXT", EventError)
	apply("MANGAREADER_NOTIFY_OPEN_TEXT", EventOpen)
	apply("MANGAREADER_NOTIFY_COPY_TEXT", EventCopy)
	return prefs
}

// Notifier sends OS-level notifications for the enabled events. A nil
// Notifier is valid and sends nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Error reports a page that could not be loaded.
func (n *Notifier) Error(path string, err error) {
	if !n.enabledFor(EventError) {
		return
	}
	detail := filepath.Base(path)
	if path == "" {
		detail = "page"
	}
	if err != nil {
		detail = fmt.Sprintf("%s: %v", detail, err)
	}
	n.dispatch(EventError, detail, platform.Options{})
}

// Open reports a newly opened page with a thumbnail when img is given.
func (n *Notifier) Open(path string, img image.Image) {
	if !n.enabledFor(EventOpen) {
		return
	}
	opts := platform.Options{}
	cleanup := func() {}
	if img != nil {
		if icon, remove, err := createPreview(img); err != nil {
			log.Warn().Err(err).Msg("notification preview")
		} else {
			opts.IconPath = icon
			cleanup = remove
		}
	}
	if n.dispatch(EventOpen, filepath.Base(path), opts) {
		removeLater(previewLifetime, cleanup)
		return
	}
	cleanup()
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "page"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil || n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

// dispatch reports whether the notification was handed to the desktop.
func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) bool {
	pref, ok := n.prefs.Events[event]
	if !ok || strings.TrimSpace(pref.Template) == "" {
		return false
	}
	body := strings.TrimSpace(fmt.Sprintf(strings.TrimSpace(pref.Template), strings.TrimSpace(detail)))
	if body == "" {
		return false
	}
	opts.Urgency = pref.Urgency
	if err := send(n.prefs.Title, body, opts); err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			log.Debug().Str("event", string(event)).Msg("notifications unsupported")
			return false
		}
		log.Warn().Err(err).Str("event", string(event)).Msg("notification")
		return false
	}
	return true
}

// createPreview writes a small PNG of img to a temporary file.
func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "mangareader-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, thumbnail(img, previewSize)); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("remove preview")
		}
	}
	return path, cleanup, nil
}

// thumbnail scales img so its longer side is at most limit pixels.
func thumbnail(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}
	if w >= h {
		h = h * limit / w
		w = limit
	} else {
		w = w * limit / h
		h = limit
	}
	dst := image.NewRGBA(image.Rect(0, 0, max1(w), max1(h)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
