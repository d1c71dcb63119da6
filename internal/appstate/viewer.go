package appstate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/example/mangareader/internal/clipboard"
	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/imageio"
	"github.com/example/mangareader/internal/notify"
)

// Swapped in tests.
var (
	clipboardWrite = clipboard.WriteImage
	clipboardRead  = clipboard.ReadImage
	stepFile       = imageio.Step
)

// PageWatcher is told which files are on screen so it can report changes.
type PageWatcher interface {
	Set(paths ...string) error
}

// result is what an action hands back to the event loop.
type result struct {
	redraw  bool
	message string
	err     error
}

// viewer runs the reader actions against the controller. Its methods are
// called from the event loop and from worker jobs.
type viewer struct {
	ctrl     *controller.Controller
	notifier *notify.Notifier
	watcher  PageWatcher
	logger   zerolog.Logger
}

func (v *viewer) load(ctx context.Context, path string, idx int) result {
	if err := v.ctrl.LoadFile(ctx, path, idx); err != nil {
		if errors.Is(err, context.Canceled) {
			return result{}
		}
		v.logger.Error().Err(err).Str("path", path).Int("slot", idx).Msg("load")
		v.notifier.Error(path, err)
		return result{err: err, message: fmt.Sprintf("could not open %s", filepath.Base(path))}
	}
	v.logger.Info().Str("path", path).Int("slot", idx).Msg("opened")
	v.notifier.Open(path, v.ctrl.Images()[idx])
	v.watchOpen()
	return result{redraw: true}
}

// step opens the page delta files away from the one in slot 0.
func (v *viewer) step(ctx context.Context, delta int) result {
	current := v.ctrl.Path(0)
	if current == "" {
		return result{message: "no file open"}
	}
	next, ok, err := stepFile(current, delta)
	if err != nil {
		v.logger.Error().Err(err).Msg("step")
		return result{err: err, message: "could not list directory"}
	}
	if !ok {
		if delta > 0 {
			return result{message: "last page"}
		}
		return result{message: "first page"}
	}
	return v.load(ctx, next, 0)
}

// reload re-reads every slot showing path.
func (v *viewer) reload(ctx context.Context, path string) result {
	var res result
	for idx := 0; idx < controller.SlotCount; idx++ {
		p := v.ctrl.Path(idx)
		if p == "" || !samePath(p, path) {
			continue
		}
		r := v.load(ctx, p, idx)
		res.redraw = res.redraw || r.redraw
		if r.err != nil {
			res = r
		}
	}
	return res
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

func (v *viewer) rotate(n int, cw bool) result {
	return result{redraw: v.ctrl.Rotate(n, cw)}
}

func (v *viewer) setLayout(l controller.Layout) result {
	v.ctrl.SetLayout(l)
	return result{redraw: true}
}

func (v *viewer) setSizing(s controller.Sizing) result {
	v.ctrl.SetSizing(s)
	return result{redraw: true}
}

func (v *viewer) cycleLayout() result {
	return v.setLayout(nextOf(controller.Layouts, v.ctrl.Layout()))
}

func (v *viewer) cycleSizing() result {
	return v.setSizing(nextOf(controller.Sizings, v.ctrl.Sizing()))
}

func nextOf[T comparable](all []T, cur T) T {
	for i, v := range all {
		if v == cur {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

func (v *viewer) pan(dx, dy int) result {
	return result{redraw: v.ctrl.Pan(dx, dy)}
}

func (v *viewer) copyPage() result {
	img := v.ctrl.Images()[0]
	if img == nil {
		return result{message: "nothing to copy"}
	}
	if err := clipboardWrite(img); err != nil {
		v.logger.Error().Err(err).Msg("copy")
		return result{err: err, message: "copy failed"}
	}
	name := "page"
	if p := v.ctrl.Path(0); p != "" {
		name = filepath.Base(p)
	}
	v.notifier.Copy(name)
	return result{message: "page copied to clipboard"}
}

func (v *viewer) pastePage() result {
	img, err := clipboardRead()
	if err != nil {
		v.logger.Error().Err(err).Msg("paste")
		return result{err: err, message: "paste failed"}
	}
	if err := v.ctrl.SetImage(0, img, ""); err != nil {
		v.logger.Error().Err(err).Msg("paste")
		return result{err: err, message: "paste failed"}
	}
	v.watchOpen()
	return result{redraw: true, message: "pasted page"}
}

func (v *viewer) watchOpen() {
	if v.watcher == nil {
		return
	}
	paths := make([]string, 0, controller.SlotCount)
	for idx := 0; idx < controller.SlotCount; idx++ {
		paths = append(paths, v.ctrl.Path(idx))
	}
	if err := v.watcher.Set(paths...); err != nil {
		v.logger.Warn().Err(err).Msg("watch")
	}
}
