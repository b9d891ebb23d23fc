// Package geom holds the shared numeric core of the slicer: the process
// tolerances, affine matrices, bounding boxes and the z-range of cutting
// planes. All 2D/3D points use the sdfx vector types.
package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Default tolerance values. Pt is the point-rasterisation grid; Eq is
// general equality; Sqr compares squared quantities such as areas.
const (
	DefaultPt  = 0x1p-10
	DefaultEq  = 0x1p-13
	DefaultSqr = 0x1p-26
)

// Tol is the tolerance configuration. It is built once before any
// geometric work starts and never written afterwards; every geometric
// function receives it by pointer.
type Tol struct {
	Pt  float64
	Eq  float64
	Sqr float64
}

// NewTol builds a tolerance set, clamping Eq to at most Pt and Sqr to at
// most Eq so the invariant Sqr <= Eq <= Pt always holds.
func NewTol(pt, eq, sqr float64) *Tol {
	if eq > pt {
		eq = pt
	}
	if sqr > eq {
		sqr = eq
	}
	return &Tol{Pt: pt, Eq: eq, Sqr: sqr}
}

// DefaultTol returns the default tolerance set.
func DefaultTol() *Tol {
	return NewTol(DefaultPt, DefaultEq, DefaultSqr)
}

// EqF reports a == b within the Eq tolerance.
func (t *Tol) EqF(a, b float64) bool {
	return math.Abs(a-b) < t.Eq
}

// Eq0 reports a == 0 within the Eq tolerance.
func (t *Tol) Eq0(a float64) bool {
	return math.Abs(a) < t.Eq
}

// EqSqr reports a == b within the Sqr tolerance, for squared quantities.
func (t *Tol) EqSqr(a, b float64) bool {
	return math.Abs(a-b) < t.Sqr
}

// Le reports a <= b within the Eq tolerance.
func (t *Tol) Le(a, b float64) bool {
	return a-b < t.Eq
}

// Lt reports a < b outside the Eq tolerance.
func (t *Tol) Lt(a, b float64) bool {
	return b-a > t.Eq
}

// Snap rounds a coordinate onto the Pt grid.
func (t *Tol) Snap(a float64) float64 {
	return math.Round(a/t.Pt) * t.Pt
}

// Snap2 rounds both coordinates of a point onto the Pt grid.
func (t *Tol) Snap2(p v2.Vec) v2.Vec {
	return v2.Vec{X: t.Snap(p.X), Y: t.Snap(p.Y)}
}

// EqV2 reports whether two points coincide within Eq in each coordinate.
func (t *Tol) EqV2(a, b v2.Vec) bool {
	return t.EqF(a.X, b.X) && t.EqF(a.Y, b.Y)
}
