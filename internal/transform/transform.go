// Package transform holds the geometry used to place pages in the view area:
// effective sizes after rotation, fit scaling, centring, pan clamping and the
// composition of the final affine transform.
package transform

import (
	"fmt"
	"math"
	"strings"
)

// LegacyPivotX and LegacyPivotY are the fixed rotation pivot used by
// RotationLegacy.
const (
	LegacyPivotX = 400
	LegacyPivotY = 225
)

// legacyStep is the angle applied per quadrant by RotationLegacy.
const legacyStep = math.Pi / 6

// RotationModel selects how a quadrant count becomes a rotation.
type RotationModel int

const (
	// RotationLegacy rotates by 30° per quadrant about (400, 225).
	RotationLegacy RotationModel = iota
	// RotationQuadrant rotates by 90° per quadrant counter-clockwise and
	// keeps the rotated page anchored at its placement offset.
	RotationQuadrant
)

func (m RotationModel) String() string {
	switch m {
	case RotationLegacy:
		return "legacy"
	case RotationQuadrant:
		return "quadrant"
	default:
		return fmt.Sprintf("RotationModel(%d)", int(m))
	}
}

// ParseRotationModel parses "legacy" or "quadrant".
func ParseRotationModel(s string) (RotationModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return RotationLegacy, nil
	case "quadrant", "quarter":
		return RotationQuadrant, nil
	}
	return RotationLegacy, fmt.Errorf("unknown rotation model %q", s)
}

// Placement is the scale and offset a page was laid out with.
type Placement struct {
	Scale float64
	DX    float64
	DY    float64
}

// EffectiveDimension returns the on-screen width and height of a w×h image
// after rotation by quadrants and scaling. Odd quadrant counts swap the axes.
func EffectiveDimension(w, h, scale float64, quadrants int) (float64, float64) {
	if quadrants%2 != 0 {
		w, h = h, w
	}
	return w * scale, h * scale
}

// FitScale returns the largest scale that fits an image into a box while
// keeping its aspect ratio. imgHeight and imgWidth must be non-zero.
func FitScale(imgHeight, imgWidth, boxHeight, boxWidth float64) float64 {
	return math.Min(boxHeight/imgHeight, boxWidth/imgWidth)
}

// CenterOffset returns the start of an image of imgLength centred in a view
// of viewLength, or 0 when the image does not fit.
func CenterOffset(viewLength, imgLength float64) float64 {
	if viewLength > imgLength {
		return (viewLength - imgLength) / 2
	}
	return 0
}

// ClampPan moves pos by delta along one axis. Movement only happens when the
// image is longer than the view; the leading edge never moves past 0 and the
// trailing edge never moves inside viewLen.
func ClampPan(imgLen, viewLen, pos, delta float64) float64 {
	if viewLen >= imgLen {
		return pos
	}
	next := pos + delta
	switch {
	case delta > 0:
		if next >= 0 {
			return 0
		}
		return next
	case delta < 0:
		limit := viewLen - imgLen
		if next <= limit {
			return limit
		}
		return next
	default:
		return pos
	}
}

// Compose builds the legacy page transform: uniform scale, a translation of
// (dx/scale, dy/scale) in pre-scale space, then a rotation of quadrants*30°
// about (LegacyPivotX, LegacyPivotY).
func Compose(scale, dx, dy float64, quadrants int) Affine {
	return Scale(scale, scale).
		Mul(Translate(dx/scale, dy/scale)).
		Mul(RotateAbout(float64(quadrants)*legacyStep, LegacyPivotX, LegacyPivotY))
}

// ComposeQuadrant builds a transform that turns a w×h image by quadrants
// quarter turns counter-clockwise, scales it and places the top-left corner
// of the rotated page at (dx, dy).
func ComposeQuadrant(scale, dx, dy float64, quadrants int, w, h float64) Affine {
	rot := quarterTurn(quadrants)
	minX, minY := math.Inf(1), math.Inf(1)
	for _, c := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := rot.Apply(c[0], c[1])
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
	}
	return Translate(dx, dy).
		Mul(Scale(scale, scale)).
		Mul(Translate(-minX, -minY)).
		Mul(rot)
}

// quarterTurn returns an exact rotation by q quarter turns counter-clockwise
// on a y-down screen.
func quarterTurn(q int) Affine {
	switch ((q % 4) + 4) % 4 {
	case 1:
		return Affine{0, -1, 1, 0, 0, 0}
	case 2:
		return Affine{-1, 0, 0, -1, 0, 0}
	case 3:
		return Affine{0, 1, -1, 0, 0, 0}
	default:
		return Identity
	}
}

// Compose dispatches to the composition for m. w and h are the unscaled image
// dimensions.
func (m RotationModel) Compose(p Placement, quadrants int, w, h float64) Affine {
	if m == RotationQuadrant {
		return ComposeQuadrant(p.Scale, p.DX, p.DY, quadrants, w, h)
	}
	return Compose(p.Scale, p.DX, p.DY, quadrants)
}
