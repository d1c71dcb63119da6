package transform

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
type Affine [6]float64

// Identity is the transform that leaves every point where it is.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Affine {
	return Affine{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Affine {
	return Affine{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation by radians. In a y-down coordinate system a
// positive angle turns clockwise on screen.
func Rotate(radians float64) Affine {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Affine{cos, sin, -sin, cos, 0, 0}
}

// RotateAbout rotates by radians around the point (px, py).
func RotateAbout(radians, px, py float64) Affine {
	return Translate(px, py).Mul(Rotate(radians)).Mul(Translate(-px, -py))
}

// Mul returns m * other, which applies other first and then m.
func (m Affine) Mul(other Affine) Affine {
	return Affine{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply maps the point (x, y) through m.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ScaleX returns the length an x unit vector has after m, which is the
// page scale for any rotation.
func (m Affine) ScaleX() float64 {
	return math.Hypot(m[0], m[1])
}

// Aff3 converts m into the row-major layout used by golang.org/x/image/draw.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{
		m[0], m[2], m[4],
		m[1], m[3], m[5],
	}
}
