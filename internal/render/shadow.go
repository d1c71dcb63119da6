package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow painted under a page.
type ShadowOptions struct {
	Radius int
	Offset image.Point
	Color  color.RGBA
	// Opacity scales the alpha of Color; 0 disables the shadow.
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow offset down and to the right.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  8,
		Offset:  image.Pt(6, 6),
		Color:   color.RGBA{A: 255},
		Opacity: 0.55,
	}
}

// drawShadow blurs the page rectangle and composites it, shifted by
// opts.Offset, onto dst. Only the part that lands inside dst is computed.
func drawShadow(dst *image.RGBA, page image.Rectangle, opts ShadowOptions) {
	if page.Empty() || opts.Opacity <= 0 {
		return
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
	}

	shadow := page.Add(opts.Offset)
	area := shadow.Inset(-radius).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}
	// Pad the mask so the blur sees the page edge even when it lies outside dst.
	maskRect := area.Inset(-radius)
	mask := image.NewGray(maskRect)
	fill := shadow.Intersect(maskRect)
	draw.Draw(mask, fill, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)

	blurred := blurGray(mask, radius)
	c := opts.Color
	c.A = uint8(float64(c.A)*opacity + 0.5)
	if c.A == 0 {
		return
	}
	draw.DrawMask(dst, area, image.NewUniform(c), image.Point{}, blurred, area.Min, draw.Over)
}

// blurGray applies a separable box blur of the given radius.
func blurGray(src *image.Gray, radius int) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	if radius <= 0 {
		copy(out.Pix, src.Pix)
		return out
	}
	w, h := b.Dx(), b.Dy()
	tmp := image.NewGray(b)
	boxPass(src.Pix, tmp.Pix, w, h, 1, src.Stride, radius)
	boxPass(tmp.Pix, out.Pix, h, w, tmp.Stride, 1, radius)
	return out
}

// boxPass averages n samples along each of lines lines. step is the offset
// between samples within a line and lineStep the offset between lines.
func boxPass(src, dst []uint8, n, lines, step, lineStep, radius int) {
	prefix := make([]int, n+1)
	for l := 0; l < lines; l++ {
		base := l * lineStep
		for i := 0; i < n; i++ {
			prefix[i+1] = prefix[i] + int(src[base+i*step])
		}
		for i := 0; i < n; i++ {
			lo, hi := i-radius, i+radius
			if lo < 0 {
				lo = 0
			}
			if hi >= n {
				hi = n - 1
			}
			dst[base+i*step] = uint8((prefix[hi+1] - prefix[lo]) / (hi - lo + 1))
		}
	}
}
