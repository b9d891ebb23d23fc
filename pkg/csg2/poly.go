// Package csg2 holds the per-layer 2D stage of the slicer: polygon sets
// sliced from the 3D primitives, the Boolean evaluator that flattens a
// layer to one polygon set, the triangulator, and the layer-difference
// pass used by the WebGL output.
package csg2

import (
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/syn"
)

// Vec2Loc is a 2D vertex that remembers the source location of the
// geometry that generated it.
type Vec2Loc struct {
	P   v2.Vec
	Loc syn.Loc
}

// Path is one closed ring: indices into the owning Poly's point array.
// The last point connects back to the first implicitly.
type Path struct {
	PointIdx []int
}

// Poly is a polygon set: shared vertices, closed paths, and (after
// triangulation) triangle index triples. Outer rings wind counter-
// clockwise, holes clockwise.
type Poly struct {
	Points []Vec2Loc
	Paths  []Path
	Tris   [][3]int
}

// IsEmpty reports whether the set has no paths.
func (p *Poly) IsEmpty() bool {
	return p == nil || len(p.Paths) == 0
}

// AddPath appends one ring, sharing no points with existing paths.
func (p *Poly) AddPath(pts []Vec2Loc) {
	base := len(p.Points)
	p.Points = append(p.Points, pts...)
	idx := make([]int, len(pts))
	for i := range pts {
		idx[i] = base + i
	}
	p.Paths = append(p.Paths, Path{PointIdx: idx})
}

// PathArea returns the signed area of a path: positive for counter-
// clockwise winding.
func (p *Poly) PathArea(path Path) float64 {
	var sum float64
	n := len(path.PointIdx)
	for i := 0; i < n; i++ {
		a := p.Points[path.PointIdx[i]].P
		b := p.Points[path.PointIdx[(i+1)%n]].P
		sum += geom.Cross2(a.X, a.Y, b.X, b.Y)
	}
	return sum / 2
}

// Area returns the total signed area of the set; holes subtract.
func (p *Poly) Area() float64 {
	var sum float64
	for _, path := range p.Paths {
		sum += p.PathArea(path)
	}
	return sum
}

// BB returns the bounding box over all points.
func (p *Poly) BB() geom.BB2 {
	bb := geom.EmptyBB2()
	for _, pt := range p.Points {
		bb.Extend(pt.P)
	}
	return bb
}

// Append copies another set's paths into p, preserving locations.
func (p *Poly) Append(o *Poly) {
	if o == nil {
		return
	}
	for _, path := range o.Paths {
		ring := make([]Vec2Loc, len(path.PointIdx))
		for i, idx := range path.PointIdx {
			ring[i] = o.Points[idx]
		}
		p.AddPath(ring)
	}
}

// MaxLazy is the hard upper bound on how many operands the Boolean
// evaluator takes on simultaneously.
const MaxLazy = 10

// Opt is the configuration the 2D stage honours.
type Opt struct {
	MaxSimultaneous int
	SkipEmpty       bool // skip empty operand sets early
	DropCollinear   bool // collapse collinear chains in output paths
	Tol             *geom.Tol
}

// DefaultOpt mirrors the CLI defaults: full laziness, both optimisations
// on.
func DefaultOpt() *Opt {
	return &Opt{
		MaxSimultaneous: MaxLazy,
		SkipEmpty:       true,
		DropCollinear:   true,
		Tol:             geom.DefaultTol(),
	}
}

// cap returns the clamped simultaneous-operand cap.
func (o *Opt) cap() int {
	c := o.MaxSimultaneous
	if c < 2 {
		c = 2
	}
	if c > MaxLazy {
		c = MaxLazy
	}
	return c
}

// BoolError is a located error of the 2D stage: a slice contour, Boolean
// result or triangulation could not be resolved within the configured
// epsilons.
type BoolError struct {
	Msg  string
	Loc  syn.Loc
	Loc2 syn.Loc
}

func (e *BoolError) Error() string { return e.Msg }

// Location returns the offending locations.
func (e *BoolError) Location() (syn.Loc, syn.Loc) { return e.Loc, e.Loc2 }

var _ syn.Located = (*BoolError)(nil)

// Scratch is the per-worker scratch state. It is reset in bulk between
// layers; capacity is retained. Anything that must survive the layer is
// copied into the output Poly before the reset.
type Scratch struct {
	edges []bedge
	segs  []useg
	ts    []float64
	rings [][]v2.Vec
}

// NewScratch returns an empty scratch region.
func NewScratch() *Scratch {
	return &Scratch{}
}

// Reset rewinds the scratch without releasing capacity.
func (s *Scratch) Reset() {
	s.edges = s.edges[:0]
	s.segs = s.segs[:0]
	s.ts = s.ts[:0]
	s.rings = s.rings[:0]
}
