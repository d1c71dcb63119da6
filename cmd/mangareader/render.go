package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/render"
)

// renderCmd paints the view area to a PNG without a display.
type renderCmd struct {
	*root
	fs       *flag.FlagSet
	files    []string
	output   string
	noShadow bool
	adjust   viewAdjust
}

func (c *renderCmd) Program() string {
	return c.subProgram("render")
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.output, "output", "view.png", "output PNG file, - for stdout")
	fs.BoolVar(&c.noShadow, "no-shadow", false, "do not draw the page drop shadow")
	c.adjust.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.files = fs.Args()
	if len(c.files) < 1 || len(c.files) > controller.SlotCount {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	ctrl, err := c.newController()
	if err != nil {
		return err
	}
	if err := loadPages(context.Background(), ctrl, c.files); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.adjust.apply(ctrl); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	opts := render.Options{Background: c.activeTheme.ViewBackground}
	if !c.noShadow {
		opts.Shadow = render.DefaultShadowOptions()
		opts.Shadow.Color = c.activeTheme.PageShadow
	}
	frame := render.Frame(snap.ViewWidth, snap.ViewHeight, snap.Images, snap.Transforms, opts)

	var w io.Writer = c.stdout
	if c.output != "-" {
		f, err := os.Create(c.output)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := png.Encode(w, frame); err != nil {
		return fmt.Errorf("render: encode %s: %w", c.output, err)
	}
	if c.output != "-" {
		log.Info().Str("file", c.output).Int("width", snap.ViewWidth).Int("height", snap.ViewHeight).Msg("rendered view")
	}
	return nil
}
