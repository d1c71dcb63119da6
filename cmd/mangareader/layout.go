package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/example/mangareader/internal/controller"
)

// layoutCmd prints where the pages end up for the configured view.
type layoutCmd struct {
	*root
	fs     *flag.FlagSet
	files  []string
	adjust viewAdjust
}

func (l *layoutCmd) Program() string {
	return l.subProgram("layout")
}

func (l *layoutCmd) FlagSet() *flag.FlagSet {
	return l.fs
}

func parseLayoutCmd(args []string, r *root) (*layoutCmd, error) {
	fs := flag.NewFlagSet("layout", flag.ExitOnError)
	l := &layoutCmd{root: r, fs: fs}
	fs.Usage = usageFunc(l)
	l.adjust.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	l.files = fs.Args()
	if len(l.files) < 1 || len(l.files) > controller.SlotCount {
		return nil, &UsageError{of: l}
	}
	return l, nil
}

func (l *layoutCmd) Run() error {
	ctrl, err := l.newController()
	if err != nil {
		return err
	}
	if err := loadPages(context.Background(), ctrl, l.files); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := l.adjust.apply(ctrl); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	fmt.Fprintf(l.stdout, "view %dx%d layout=%s sizing=%s rotation=%d model=%s\n",
		snap.ViewWidth, snap.ViewHeight, snap.Layout.Key(), snap.Sizing.Key(), snap.Rotation, ctrl.RotationModel())
	for i, img := range snap.Images {
		if img == nil {
			fmt.Fprintf(l.stdout, "slot %d: empty\n", i)
			continue
		}
		b := img.Bounds()
		m := snap.Transforms[i]
		fmt.Fprintf(l.stdout, "slot %d: %s %dx%d", i, filepath.Base(snap.Paths[i]), b.Dx(), b.Dy())
		if p, ok := ctrl.Placement(i); ok {
			fmt.Fprintf(l.stdout, " scale=%g dx=%g dy=%g", p.Scale, p.DX, p.DY)
		}
		fmt.Fprintf(l.stdout, " matrix=[%.6g %.6g %.6g %.6g %.6g %.6g]\n", m[0], m[1], m[2], m[3], m[4], m[5])
	}
	return nil
}
