package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/mangareader/internal/controller"
	"github.com/example/mangareader/internal/render"
	"github.com/example/mangareader/internal/theme"
	"github.com/example/mangareader/internal/transform"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatal().Err(err).Msg("parse font")
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatal().Err(err).Msg("font face")
	}
}

// viewRect is the part of a width×height window the pages are drawn in.
func viewRect(width, height int) image.Rectangle {
	r := image.Rect(0, menuHeight, width, height-statusHeight)
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	return r
}

type paintState struct {
	width, height int
	snap          controller.Snapshot
	menu          menuView
	theme         *theme.Theme
	shadow        render.ShadowOptions
	message       string
	messageErr    bool
	messageUntil  time.Time
	promptActive  bool
	prompt        string
}

// statusText summarises the view for the status line.
func statusText(snap controller.Snapshot) string {
	name := "no page"
	if snap.Paths[0] != "" {
		name = filepath.Base(snap.Paths[0])
	} else if snap.Images[0] != nil {
		name = "pasted page"
	}
	s := fmt.Sprintf("%s | %s | %s | rotation %d", name, snap.Layout, snap.Sizing, snap.Rotation)
	if img, m := snap.Images[0], snap.Transforms[0]; img != nil {
		b := img.Bounds()
		s += fmt.Sprintf(" | %dx%d", b.Dx(), b.Dy())
		if snap.Layout == controller.LayoutSingle {
			s += fmt.Sprintf(" at %.0f%%", m.ScaleX()*100)
		}
	}
	return s
}

// composeFrame draws a whole window into dst. It returns false when ctx was
// cancelled part way through.
func composeFrame(ctx context.Context, dst *image.RGBA, st paintState) bool {
	th := st.theme
	if th == nil {
		th = theme.Default()
	}
	view := viewRect(st.width, st.height).Intersect(dst.Bounds())
	// Transforms place pages relative to the view origin.
	shift := transform.Translate(float64(view.Min.X), float64(view.Min.Y))
	xforms := make([]transform.Affine, len(st.snap.Transforms))
	for i, m := range st.snap.Transforms {
		xforms[i] = shift.Mul(m)
	}
	render.Paint(dst.SubImage(view).(*image.RGBA), st.snap.Images, xforms, render.Options{
		Background: th.ViewBackground,
		Shadow:     shadowFor(st.shadow, th),
	})
	if ctx.Err() != nil {
		return false
	}

	status := image.Rect(0, st.height-statusHeight, st.width, st.height)
	fill(dst, status, image.NewUniform(th.StatusBackground))
	line := statusText(st.snap)
	if st.promptActive {
		line = "Open: " + st.prompt + "_"
	}
	drawText(dst, 4, status.Min.Y+textBaseline-1, line, image.NewUniform(th.StatusText))

	drawMenuBar(dst, st.menu, th)
	if ctx.Err() != nil {
		return false
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.width, st.height, st.message, st.messageErr, th)
	}
	return ctx.Err() == nil
}

func shadowFor(opts render.ShadowOptions, th *theme.Theme) render.ShadowOptions {
	opts.Color = th.PageShadow
	return opts
}

func drawMessage(dst *image.RGBA, width, height int, msg string, isErr bool, th *theme.Theme) {
	ink := th.MessageText
	if isErr {
		ink = th.ErrorText
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: messageFace}
	wmsg := d.MeasureString(msg).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := (width - wmsg) / 2
	py := (height-ascent-descent)/2 + ascent
	rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
	draw.Draw(dst, rect, image.NewUniform(th.MessageBackground), image.Point{}, draw.Over)
	drawOutline(dst, rect, th.MenuBorder)
	d.Dot = fixed.P(px, py)
	d.DrawString(msg)
}

// drawOutline draws a one pixel border just inside r.
func drawOutline(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u)
	fill(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u)
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Error().Err(err).Msg("new buffer")
		return
	}
	defer b.Release()

	if !composeFrame(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
