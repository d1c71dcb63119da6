package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/imageio"
)

// decodePage is swapped in tests.
var decodePage = imageio.Decode

// loadPages decodes up to two files concurrently and stores them in slot
// order once all of them decoded.
func loadPages(ctx context.Context, ctrl *controller.Controller, files []string) error {
	if len(files) > controller.SlotCount {
		return fmt.Errorf("at most %d pages can be shown, got %d", controller.SlotCount, len(files))
	}
	imgs := make([]image.Image, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			img, err := decodePage(f)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			imgs[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, img := range imgs {
		if err := ctrl.SetImage(i, img, files[i]); err != nil {
			return fmt.Errorf("open %s: %w", files[i], err)
		}
	}
	return nil
}

// viewAdjust holds the rotate and pan flags shared by the headless commands.
type viewAdjust struct {
	rotate int
	pan    string
}

func (v *viewAdjust) register(fs *flag.FlagSet) {
	fs.IntVar(&v.rotate, "rotate", 0, "quarter turns clockwise; negative turns counter-clockwise")
	fs.StringVar(&v.pan, "pan", "", "pan the page by dx,dy pixels after layout")
}

func (v *viewAdjust) apply(ctrl *controller.Controller) error {
	switch {
	case v.rotate > 0:
		ctrl.Rotate(v.rotate, true)
	case v.rotate < 0:
		ctrl.Rotate(-v.rotate, false)
	}
	if v.pan == "" {
		return nil
	}
	dx, dy, err := parsePair(v.pan)
	if err != nil {
		return fmt.Errorf("pan: %w", err)
	}
	ctrl.Pan(dx, dy)
	return nil
}

func parsePair(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected dx,dy, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
