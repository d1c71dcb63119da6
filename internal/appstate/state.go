// Package appstate runs the reader window: a menu bar, the page view and a
// status line, driven by shiny events.
package appstate

import (
	"context"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/notify"
	"github.com/example/mangareader/internal/render"
	"github.com/example/mangareader/internal/theme"
)

const (
	messageDuration = 2 * time.Second
	keyPanStep      = 40
	wheelPanStep    = 60
)

// AppState holds the configuration of the reader window.
type AppState struct {
	Title  string
	Theme  *theme.Theme
	Shadow render.ShadowOptions

	ctrl    *controller.Controller
	viewer  *viewer
	worker  *worker
	onClose func()
	logger  zerolog.Logger

	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithController sets the controller whose state is shown.
func WithController(c *controller.Controller) Option { return func(a *AppState) { a.ctrl = c } }

// WithTheme sets the colours used for the chrome.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.Theme = t } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *AppState) { a.viewer.notifier = n }
}

// WithWatcher registers a watcher that is told which files are open.
func WithWatcher(w PageWatcher) Option { return func(a *AppState) { a.viewer.watcher = w } }

// WithShadow sets the drop shadow painted under pages.
func WithShadow(s render.ShadowOptions) Option { return func(a *AppState) { a.Shadow = s } }

// WithTitle sets the window title.
func WithTitle(t string) Option { return func(a *AppState) { a.Title = t } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(a *AppState) { a.logger = l } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) *AppState {
	a := &AppState{
		Title:  "Manga Reader",
		Theme:  theme.Default(),
		Shadow: render.DefaultShadowOptions(),
		viewer: &viewer{},
		logger: log.Logger,
	}
	for _, o := range opts {
		o(a)
	}
	if a.ctrl == nil {
		a.ctrl = controller.New()
	}
	if a.Theme == nil {
		a.Theme = theme.Default()
	}
	a.viewer.ctrl = a.ctrl
	a.viewer.logger = a.logger
	a.worker = newWorker(a.logger)
	return a
}

// Controller returns the controller driving the window.
func (a *AppState) Controller() *controller.Controller { return a.ctrl }

// Reload queues a reload of every slot showing path. It is safe to call
// from any goroutine, including before the window opens.
func (a *AppState) Reload(path string) {
	a.worker.submit(job{name: "reload", run: func(ctx context.Context) result {
		return a.viewer.reload(ctx, path)
	}})
}

// Open queues loading path into slot idx.
func (a *AppState) Open(path string, idx int) {
	a.worker.submit(job{name: "open", run: func(ctx context.Context) result {
		return a.viewer.load(ctx, path, idx)
	}})
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	viewH, viewW := a.ctrl.ViewDimension()
	width, height := viewW, viewH+menuHeight+statusHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.Title})
	if err != nil {
		a.logger.Fatal().Err(err).Msg("new window")
	}
	defer w.Release()
	defer a.notifyClose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.worker.deliver = func(d jobDone) { w.Send(d) }
	go a.worker.run(ctx)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			drawFrame(pctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()
	defer close(paintCh)
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	var (
		message      string
		messageErr   bool
		messageUntil time.Time
		openMenu     = -1
		hoverTitle   = -1
		hoverItem    = -1
		dragging     bool
		last         image.Point
		promptActive bool
		prompt       string
		quit         bool
	)

	// Resizes are coalesced: at most one relayout job waits at a time and it
	// uses the latest size when it runs.
	var resizePending atomic.Bool
	var latestW, latestH atomic.Int64

	redraw := func() { w.Send(paint.Event{}) }
	show := func(res result) {
		if res.message != "" {
			message = res.message
			messageErr = res.err != nil
			messageUntil = time.Now().Add(messageDuration)
			res.redraw = true
		}
		if res.redraw {
			redraw()
		}
	}
	background := func(name string, fn func(ctx context.Context) result) {
		a.worker.submit(job{name: name, run: fn})
	}

	v := a.viewer
	table := buildActions(v, actionHooks{
		show:       show,
		background: background,
		reload:     a.Reload,
		prompt: func() {
			promptActive = true
			prompt = a.ctrl.Path(0)
			redraw()
		},
		quit: func() { quit = true },
	})
	handleShortcut := func(name string) {
		a.logger.Debug().Str("action", name).Msg("action")
		if !table.run(name) {
			a.logger.Warn().Str("action", name).Msg("unknown action")
		}
	}

	currentMenus := func() []menu { return buildMenus(a.ctrl.Layout(), a.ctrl.Sizing()) }

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case jobDone:
			show(e.result)
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			vr := viewRect(width, height)
			latestW.Store(int64(vr.Dx()))
			latestH.Store(int64(vr.Dy()))
			if resizePending.CompareAndSwap(false, true) {
				background("resize", func(context.Context) result {
					resizePending.Store(false)
					a.ctrl.SetViewDimension(int(latestH.Load()), int(latestW.Load()))
					return result{redraw: true}
				})
			}
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{
				width:        width,
				height:       height,
				snap:         a.ctrl.Snapshot(),
				menu:         menuView{menus: currentMenus(), open: openMenu, hoverTitle: hoverTitle, hoverItem: hoverItem},
				theme:        a.Theme,
				shadow:       a.Shadow,
				message:      message,
				messageErr:   messageErr,
				messageUntil: messageUntil,
				promptActive: promptActive,
				prompt:       prompt,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Point{int(e.X), int(e.Y)}
			if message != "" && time.Now().Before(messageUntil) && e.Direction == mouse.DirPress {
				messageUntil = time.Time{}
				redraw()
				continue
			}
			menus := currentMenus()
			titles := titleRects(menus)

			if openMenu >= 0 {
				drop := dropdownRect(menus[openMenu], titles[openMenu])
				item := itemAt(drop, len(menus[openMenu].items), p)
				if item != hoverItem {
					hoverItem = item
					redraw()
				}
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease && item >= 0 {
					action := menus[openMenu].items[item].action
					openMenu, hoverItem = -1, -1
					redraw()
					handleShortcut(action)
					if quit {
						stopPaint()
						return
					}
					continue
				}
				if e.Direction == mouse.DirPress && item < 0 {
					t := titleAt(titles, p)
					if t == openMenu || t < 0 {
						openMenu = -1
					} else {
						openMenu = t
					}
					hoverItem = -1
					redraw()
					continue
				}
				if t := titleAt(titles, p); t >= 0 && t != openMenu && e.Direction == mouse.DirNone {
					openMenu, hoverItem = t, -1
					redraw()
				}
				continue
			}

			if t := titleAt(titles, p); t != hoverTitle {
				hoverTitle = t
				redraw()
			}
			if hoverTitle >= 0 {
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					openMenu, hoverItem = hoverTitle, -1
					redraw()
				}
				continue
			}

			if !p.In(viewRect(width, height)) && !dragging {
				continue
			}
			switch {
			case e.Button == mouse.ButtonWheelUp:
				show(v.pan(0, wheelPanStep))
			case e.Button == mouse.ButtonWheelDown:
				show(v.pan(0, -wheelPanStep))
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				dragging = true
				last = p
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				dragging = false
			case dragging && e.Direction == mouse.DirNone:
				d := p.Sub(last)
				last = p
				if d != (image.Point{}) {
					show(v.pan(d.X, d.Y))
				}
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if promptActive {
				switch e.Code {
				case key.CodeReturnEnter:
					promptActive = false
					if path := strings.TrimSpace(prompt); path != "" {
						a.Open(path, 0)
					}
					redraw()
				case key.CodeEscape:
					promptActive = false
					redraw()
				case key.CodeDeleteBackspace:
					if len(prompt) > 0 {
						r := []rune(prompt)
						prompt = string(r[:len(r)-1])
						redraw()
					}
				default:
					if e.Rune > 0 && e.Modifiers&key.ModControl == 0 {
						prompt += string(e.Rune)
						redraw()
					}
				}
				continue
			}
			if e.Code == key.CodeEscape && openMenu >= 0 {
				openMenu, hoverItem = -1, -1
				redraw()
				continue
			}
			if action, ok := table.lookup(e); ok {
				handleShortcut(action)
				if quit {
					stopPaint()
					return
				}
			}
		}
	}
}
