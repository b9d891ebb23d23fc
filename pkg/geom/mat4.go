package geom

import (
	"math"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mat4 is an affine 4x4 transform in row-major order. The last row is
// always (0 0 0 1); operations keep that invariant. sdfx's own matrix type
// cannot be built from arbitrary elements, which multmatrix needs, so the
// slicer carries its own.
type Mat4 struct {
	M [4][4]float64
}

// Ident returns the identity transform.
func Ident() Mat4 {
	var m Mat4
	m.M[0][0], m.M[1][1], m.M[2][2], m.M[3][3] = 1, 1, 1, 1
	return m
}

// NewMat4 builds a transform from 16 row-major elements. The bottom row is
// normalised to (0 0 0 1); projective rows are not supported.
func NewMat4(e [16]float64) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.M[r][c] = e[r*4+c]
		}
	}
	m.M[3] = [4]float64{0, 0, 0, 1}
	return m
}

// Translate returns a translation by v.
func Translate(v v3.Vec) Mat4 {
	m := Ident()
	m.M[0][3], m.M[1][3], m.M[2][3] = v.X, v.Y, v.Z
	return m
}

// Scale returns a scale by v along the axes.
func Scale(v v3.Vec) Mat4 {
	var m Mat4
	m.M[0][0], m.M[1][1], m.M[2][2], m.M[3][3] = v.X, v.Y, v.Z, 1
	return m
}

// RotateX returns a rotation around the x axis by a radians.
func RotateX(a float64) Mat4 {
	s, c := math.Sin(a), math.Cos(a)
	m := Ident()
	m.M[1][1], m.M[1][2] = c, -s
	m.M[2][1], m.M[2][2] = s, c
	return m
}

// RotateY returns a rotation around the y axis by a radians.
func RotateY(a float64) Mat4 {
	s, c := math.Sin(a), math.Cos(a)
	m := Ident()
	m.M[0][0], m.M[0][2] = c, s
	m.M[2][0], m.M[2][2] = -s, c
	return m
}

// RotateZ returns a rotation around the z axis by a radians.
func RotateZ(a float64) Mat4 {
	s, c := math.Sin(a), math.Cos(a)
	m := Ident()
	m.M[0][0], m.M[0][1] = c, -s
	m.M[1][0], m.M[1][1] = s, c
	return m
}

// Mirror returns a reflection across the plane through the origin with
// normal n. A zero normal yields the identity.
func Mirror(n v3.Vec) Mat4 {
	l2 := n.Dot(n)
	if l2 == 0 {
		return Ident()
	}
	k := 2 / l2
	m := Ident()
	m.M[0][0] = 1 - k*n.X*n.X
	m.M[0][1] = -k * n.X * n.Y
	m.M[0][2] = -k * n.X * n.Z
	m.M[1][0] = -k * n.Y * n.X
	m.M[1][1] = 1 - k*n.Y*n.Y
	m.M[1][2] = -k * n.Y * n.Z
	m.M[2][0] = -k * n.Z * n.X
	m.M[2][1] = -k * n.Z * n.Y
	m.M[2][2] = 1 - k*n.Z*n.Z
	return m
}

// Mul returns m * b (apply b first, then m).
func (m Mat4) Mul(b Mat4) Mat4 {
	var r Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m.M[i][k] * b.M[k][j]
			}
			r.M[i][j] = s
		}
	}
	return r
}

// XformPos transforms a position.
func (m Mat4) XformPos(p v3.Vec) v3.Vec {
	return v3.Vec{
		X: m.M[0][0]*p.X + m.M[0][1]*p.Y + m.M[0][2]*p.Z + m.M[0][3],
		Y: m.M[1][0]*p.X + m.M[1][1]*p.Y + m.M[1][2]*p.Z + m.M[1][3],
		Z: m.M[2][0]*p.X + m.M[2][1]*p.Y + m.M[2][2]*p.Z + m.M[2][3],
	}
}

// XformDir transforms a direction (no translation).
func (m Mat4) XformDir(d v3.Vec) v3.Vec {
	return v3.Vec{
		X: m.M[0][0]*d.X + m.M[0][1]*d.Y + m.M[0][2]*d.Z,
		Y: m.M[1][0]*d.X + m.M[1][1]*d.Y + m.M[1][2]*d.Z,
		Z: m.M[2][0]*d.X + m.M[2][1]*d.Y + m.M[2][2]*d.Z,
	}
}

// Det3 returns the determinant of the linear 3x3 part. A value of zero
// means the transform collapses volume.
func (m Mat4) Det3() float64 {
	a := m.M
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}

// Inverse returns the inverse transform. The second result is false when
// the linear part is singular.
func (m Mat4) Inverse() (Mat4, bool) {
	d := m.Det3()
	if d == 0 {
		return Ident(), false
	}
	a := m.M
	inv := Ident()
	// adjugate of the 3x3 linear part
	inv.M[0][0] = (a[1][1]*a[2][2] - a[1][2]*a[2][1]) / d
	inv.M[0][1] = (a[0][2]*a[2][1] - a[0][1]*a[2][2]) / d
	inv.M[0][2] = (a[0][1]*a[1][2] - a[0][2]*a[1][1]) / d
	inv.M[1][0] = (a[1][2]*a[2][0] - a[1][0]*a[2][2]) / d
	inv.M[1][1] = (a[0][0]*a[2][2] - a[0][2]*a[2][0]) / d
	inv.M[1][2] = (a[0][2]*a[1][0] - a[0][0]*a[1][2]) / d
	inv.M[2][0] = (a[1][0]*a[2][1] - a[1][1]*a[2][0]) / d
	inv.M[2][1] = (a[0][1]*a[2][0] - a[0][0]*a[2][1]) / d
	inv.M[2][2] = (a[0][0]*a[1][1] - a[0][1]*a[1][0]) / d
	// -A⁻¹ * t
	t := v3.Vec{X: a[0][3], Y: a[1][3], Z: a[2][3]}
	it := inv.XformDir(t)
	inv.M[0][3], inv.M[1][3], inv.M[2][3] = -it.X, -it.Y, -it.Z
	return inv, true
}

// ZSeparable reports whether the transform maps local horizontal planes to
// world horizontal planes, i.e. world z depends only on local z. Analytic
// round primitives can be sliced in their local frame exactly when this
// holds.
func (m Mat4) ZSeparable(eq float64) bool {
	return math.Abs(m.M[2][0]) < eq && math.Abs(m.M[2][1]) < eq &&
		math.Abs(m.M[2][2]) >= eq
}

// String renders the matrix in SCAD multmatrix syntax.
func (m Mat4) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for r := 0; r < 4; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for c := 0; c < 4; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(m.M[r][c], 'g', -1, 64))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// Cross2 returns the scalar cross product of two 2D vectors.
func Cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}
