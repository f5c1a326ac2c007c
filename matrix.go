package compositor

import "math"

// singularEpsilon is the determinant magnitude below which a matrix is
// treated as non-invertible.
const singularEpsilon = 1e-10

// axisEpsilon is the tolerance used when testing for zero matrix entries.
const axisEpsilon = 1e-9

// Matrix represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// Shear creates a shear matrix.
func Shear(x, y float64) Matrix {
	return Matrix{
		A: 1, B: x, C: 0,
		D: y, E: 1, F: 0,
	}
}

// Multiply multiplies two matrices (m * other).
// The result applies other first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// IsInvertible reports whether the matrix has an inverse.
func (m Matrix) IsInvertible() bool {
	return math.Abs(m.Determinant()) >= singularEpsilon
}

// Inverse returns the inverse matrix and true, or the identity and false
// when the matrix is singular.
func (m Matrix) Inverse() (Matrix, bool) {
	det := m.Determinant()
	if math.Abs(det) < singularEpsilon {
		return Identity(), false
	}

	invDet := 1.0 / det
	return Matrix{
		A: m.E * invDet,
		B: -m.B * invDet,
		C: (m.B*m.F - m.C*m.E) * invDet,
		D: -m.D * invDet,
		E: m.A * invDet,
		F: (m.C*m.D - m.A*m.F) * invDet,
	}, true
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	inv, _ := m.Inverse()
	return inv
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m.A == 1 && m.B == 0 && m.C == 0 &&
		m.D == 0 && m.E == 1 && m.F == 0
}

// Preserves2DAxisAlignment reports whether axis-aligned rectangles stay
// axis-aligned under m: scales, translations, flips and rotations by
// multiples of 90 degrees qualify; other rotations and skews do not.
func (m Matrix) Preserves2DAxisAlignment() bool {
	if nearZero(m.B) && nearZero(m.D) {
		return true
	}
	return nearZero(m.A) && nearZero(m.E)
}

// ApproxEqual reports whether every entry of m and other differs by at most tol.
func (m Matrix) ApproxEqual(other Matrix, tol float64) bool {
	return math.Abs(m.A-other.A) <= tol && math.Abs(m.B-other.B) <= tol &&
		math.Abs(m.C-other.C) <= tol && math.Abs(m.D-other.D) <= tol &&
		math.Abs(m.E-other.E) <= tol && math.Abs(m.F-other.F) <= tol
}

// MapQuad maps the four corners of r through m.
func (m Matrix) MapQuad(r Rect) Quad {
	return Quad{
		P1: m.TransformPoint(Point{X: r.Min.X, Y: r.Min.Y}),
		P2: m.TransformPoint(Point{X: r.Max.X, Y: r.Min.Y}),
		P3: m.TransformPoint(Point{X: r.Max.X, Y: r.Max.Y}),
		P4: m.TransformPoint(Point{X: r.Min.X, Y: r.Max.Y}),
	}
}

// MapRect returns the axis-aligned bounding box of r mapped through m.
// The result is exact when m preserves axis alignment.
func (m Matrix) MapRect(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	return m.MapQuad(r).Bounds()
}

func nearZero(v float64) bool {
	return math.Abs(v) < axisEpsilon
}
