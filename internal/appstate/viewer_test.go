package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/mangareader/internal/controller"
)

type fakeDecoder map[string]image.Image

func (f fakeDecoder) Decode(path string) (image.Image, error) {
	if img, ok := f[path]; ok {
		return img, nil
	}
	return nil, errors.New("no such page")
}

type recordingWatcher struct {
	calls [][]string
}

func (r *recordingWatcher) Set(paths ...string) error {
	r.calls = append(r.calls, append([]string(nil), paths...))
	return nil
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newTestViewer(pages fakeDecoder) (*viewer, *recordingWatcher) {
	w := &recordingWatcher{}
	v := &viewer{
		ctrl:    controller.New(controller.WithDecoder(pages)),
		watcher: w,
		logger:  zerolog.Nop(),
	}
	return v, w
}

func TestViewerLoad(t *testing.T) {
	v, w := newTestViewer(fakeDecoder{"a.png": solid(4, 4, color.White)})

	res := v.load(context.Background(), "a.png", 0)
	if !res.redraw || res.err != nil {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := v.ctrl.Path(0); got != "a.png" {
		t.Fatalf("path %q", got)
	}
	if len(w.calls) != 1 || w.calls[0][0] != "a.png" {
		t.Fatalf("watcher calls %v", w.calls)
	}

	res = v.load(context.Background(), "missing.png", 0)
	if res.err == nil || res.message != "could not open missing.png" {
		t.Fatalf("expected load error, got %+v", res)
	}
	if got := v.ctrl.Path(0); got != "a.png" {
		t.Fatalf("failed load replaced path: %q", got)
	}
}

func TestViewerLoadCancelled(t *testing.T) {
	v, _ := newTestViewer(fakeDecoder{"a.png": solid(4, 4, color.White)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if res := v.load(ctx, "a.png", 0); res != (result{}) {
		t.Fatalf("cancelled load should be silent, got %+v", res)
	}
}

func TestViewerStep(t *testing.T) {
	pages := fakeDecoder{"01.png": solid(4, 4, color.White), "02.png": solid(4, 4, color.Black)}
	v, _ := newTestViewer(pages)

	if res := v.step(context.Background(), 1); res.message != "no file open" {
		t.Fatalf("expected no file message, got %+v", res)
	}

	original := stepFile
	stepFile = func(path string, delta int) (string, bool, error) {
		order := []string{"01.png", "02.png"}
		for i, p := range order {
			if p == path {
				j := i + delta
				if j < 0 || j >= len(order) {
					return "", false, nil
				}
				return order[j], true, nil
			}
		}
		return "", false, errors.New("not listed")
	}
	t.Cleanup(func() { stepFile = original })

	v.load(context.Background(), "01.png", 0)
	if res := v.step(context.Background(), 1); !res.redraw {
		t.Fatalf("expected redraw, got %+v", res)
	}
	if got := v.ctrl.Path(0); got != "02.png" {
		t.Fatalf("step went to %q", got)
	}
	if res := v.step(context.Background(), 1); res.message != "last page" {
		t.Fatalf("expected last page, got %+v", res)
	}
	v.step(context.Background(), -1)
	if res := v.step(context.Background(), -1); res.message != "first page" {
		t.Fatalf("expected first page, got %+v", res)
	}
}

func TestViewerReloadMatchesSlots(t *testing.T) {
	pages := fakeDecoder{"a.png": solid(4, 4, color.White), "b.png": solid(6, 6, color.White)}
	v, _ := newTestViewer(pages)
	v.load(context.Background(), "a.png", 0)
	v.load(context.Background(), "b.png", 1)

	pages["a.png"] = solid(8, 2, color.White)
	if res := v.reload(context.Background(), "a.png"); !res.redraw {
		t.Fatalf("expected redraw, got %+v", res)
	}
	if b := v.ctrl.Images()[0].Bounds(); b.Dx() != 8 {
		t.Fatalf("slot 0 not reloaded: %v", b)
	}
	if res := v.reload(context.Background(), "other.png"); res.redraw {
		t.Fatalf("unrelated path should not redraw")
	}
}

func TestViewerCycleModes(t *testing.T) {
	v, _ := newTestViewer(fakeDecoder{})
	v.cycleLayout()
	if got := v.ctrl.Layout(); got != controller.LayoutContinuous {
		t.Fatalf("layout after single should wrap to continuous, got %v", got)
	}
	v.cycleSizing()
	if got := v.ctrl.Sizing(); got != controller.SizingFitWidth {
		t.Fatalf("sizing after fit should be fit width, got %v", got)
	}
}

func TestViewerRotateAndPan(t *testing.T) {
	v, _ := newTestViewer(fakeDecoder{"a.png": solid(1600, 1200, color.White)})
	v.load(context.Background(), "a.png", 0)
	if res := v.rotate(1, true); !res.redraw {
		t.Fatalf("rotation should redraw")
	}
	if res := v.rotate(4, true); res.redraw {
		t.Fatalf("a full turn should not redraw")
	}
	if res := v.pan(10, 10); res.redraw {
		t.Fatalf("a fitted page should not pan")
	}
}

func TestViewerCopyPaste(t *testing.T) {
	v, w := newTestViewer(fakeDecoder{"a.png": solid(4, 4, color.White)})

	var copied image.Image
	origWrite, origRead := clipboardWrite, clipboardRead
	clipboardWrite = func(img image.Image) error { copied = img; return nil }
	clipboardRead = func() (image.Image, error) { return solid(3, 5, color.Black), nil }
	t.Cleanup(func() { clipboardWrite, clipboardRead = origWrite, origRead })

	if res := v.copyPage(); res.message != "nothing to copy" {
		t.Fatalf("expected nothing to copy, got %+v", res)
	}
	v.load(context.Background(), "a.png", 0)
	if res := v.copyPage(); res.err != nil || copied == nil {
		t.Fatalf("copy failed: %+v", res)
	}

	res := v.pastePage()
	if !res.redraw || res.message != "pasted page" {
		t.Fatalf("unexpected paste result %+v", res)
	}
	if b := v.ctrl.Images()[0].Bounds(); b.Dx() != 3 || b.Dy() != 5 {
		t.Fatalf("pasted image not stored: %v", b)
	}
	if p := v.ctrl.Path(0); p != "" {
		t.Fatalf("pasted page should have no path, got %q", p)
	}
	last := w.calls[len(w.calls)-1]
	if last[0] != "" {
		t.Fatalf("watcher should drop the replaced file, got %v", last)
	}
}

func TestViewerPasteError(t *testing.T) {
	v, _ := newTestViewer(fakeDecoder{})
	orig := clipboardRead
	clipboardRead = func() (image.Image, error) { return nil, errors.New("empty") }
	t.Cleanup(func() { clipboardRead = orig })

	res := v.pastePage()
	if res.err == nil || !strings.Contains(res.message, "paste failed") {
		t.Fatalf("expected paste failure, got %+v", res)
	}
}
