// Package render paints page images through their transforms.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/example/mangareader/internal/transform"
)

// Options controls how pages are painted.
type Options struct {
	// Background fills the destination before pages are drawn. A nil
	// Background leaves the destination untouched.
	Background color.Color
	// Interpolator resamples the pages; nil uses ApproxBiLinear.
	Interpolator xdraw.Interpolator
	// Shadow, when its opacity is positive, draws a blurred drop shadow
	// under every page.
	Shadow ShadowOptions
}

// Paint draws each non-nil image through the transform at the same index.
// When the two slices differ in length nothing but the background is
// painted. It returns the number of pages drawn.
func Paint(dst draw.Image, imgs []image.Image, xforms []transform.Affine, opts Options) int {
	if opts.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	}
	if len(imgs) != len(xforms) {
		return 0
	}
	interp := opts.Interpolator
	if interp == nil {
		interp = xdraw.ApproxBiLinear
	}
	drawn := 0
	for i, img := range imgs {
		if img == nil {
			continue
		}
		b := img.Bounds()
		if b.Empty() {
			continue
		}
		// Transforms are expressed for images whose origin is (0, 0).
		m := xforms[i].Mul(transform.Translate(-float64(b.Min.X), -float64(b.Min.Y)))
		if opts.Shadow.Opacity > 0 {
			if rgba, ok := dst.(*image.RGBA); ok {
				drawShadow(rgba, PageBounds(m, b), opts.Shadow)
			}
		}
		interp.Transform(dst, m.Aff3(), img, b, xdraw.Over, nil)
		drawn++
	}
	return drawn
}

// Frame allocates a width×height canvas and paints the pages onto it.
func Frame(width, height int, imgs []image.Image, xforms []transform.Affine, opts Options) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	Paint(dst, imgs, xforms, opts)
	return dst
}

// PageBounds returns the smallest integer rectangle containing the source
// rectangle r after it is mapped through m.
func PageBounds(m transform.Affine, r image.Rectangle) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4]image.Point{r.Min, {r.Max.X, r.Min.Y}, {r.Min.X, r.Max.Y}, r.Max} {
		x, y := m.Apply(float64(p.X), float64(p.Y))
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}
