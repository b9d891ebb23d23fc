// Package csg3 lowers the typed SCAD tree to a 3D solid tree: transforms
// are folded into the primitives, round primitives get their fragment
// counts resolved, and empty or collapsed geometry is handled according
// to the configured policies. No transform nodes remain in the result.
package csg3

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// Kind enumerates the node variants: three combinators and four
// primitive leaves.
type Kind int

const (
	KindAdd     Kind = iota // union of children
	KindSub                 // first child minus the rest
	KindCut                 // intersection of children
	KindSphere
	KindCyl
	KindPoly
	KindExtrude
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindSub:
		return "sub"
	case KindCut:
		return "cut"
	case KindSphere:
		return "sphere"
	case KindCyl:
		return "cylinder"
	case KindPoly:
		return "polyhedron"
	case KindExtrude:
		return "extrude"
	default:
		return "unknown"
	}
}

// IsPrimitive reports whether the kind is a leaf primitive.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindSphere, KindCyl, KindPoly, KindExtrude:
		return true
	}
	return false
}

// Node is one solid tree node. Children is set for combinators, Data for
// primitives.
type Node struct {
	Kind     Kind
	Loc      syn.Loc
	Mod      syn.Modifier
	Children []*Node
	Data     NodeData
}

// NodeData is the interface for primitive payloads.
type NodeData interface {
	csg3Data() // marker method restricting implementations to this package
}

// SphereData is an analytic sphere of radius R around the local origin.
// M is the frozen local-to-world transform (guaranteed z-separable), MI
// its inverse.
type SphereData struct {
	R  float64
	Fn int
	M  geom.Mat4
	MI geom.Mat4
}

// CylData is an analytic cylinder or cone along the local z axis between
// Z0 and Z1, with radius R1 at Z0 and R2 at Z1. M is z-separable.
type CylData struct {
	R1, R2 float64
	Z0, Z1 float64
	Fn     int
	M      geom.Mat4
	MI     geom.Mat4
}

// PolyData is a generic polyhedron with world-space points. Faces index
// into Points.
type PolyData struct {
	Points []scad.Vec3Loc
	Faces  [][]int
}

// ExtrudeData is a vertical extrusion of a 2D profile between local Z0
// and Z1. M is z-separable; profile points live in the local xy plane.
type ExtrudeData struct {
	Points []scad.Vec2Loc
	Paths  [][]int
	Z0, Z1 float64
	M      geom.Mat4
	MI     geom.Mat4
}

func (SphereData) csg3Data()  {}
func (CylData) csg3Data()     {}
func (PolyData) csg3Data()    {}
func (ExtrudeData) csg3Data() {}

// Tree is the lowered solid tree. Root is nil when everything was elided.
type Tree struct {
	Root     *Node
	Warnings []*GeomError
}

// Policy selects how a geometry problem class is handled.
type Policy int

const (
	PolicyError Policy = iota
	PolicyWarn
	PolicyIgnore
)

func (p Policy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyWarn:
		return "warn"
	case PolicyIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParsePolicy reads a policy name as the CLI spells it.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "error", "err", "fail":
		return PolicyError, true
	case "warn", "warning":
		return PolicyWarn, true
	case "ignore", "ign":
		return PolicyIgnore, true
	}
	return 0, false
}

// Problem is the class of a geometry diagnostic. The first four are
// downgradable by policy.
type Problem int

const (
	ProblemEmpty     Problem = iota // zero-size primitive at source
	ProblemCollapse                 // geometry collapsed by a transform
	Problem2DIn3D                   // 2D object in 3D context
	Problem3DIn2D                   // 3D object in 2D context
	ProblemBadFace                  // degenerate polyhedron face
	ProblemNonPlanar                // non-planar polyhedron face
)

// GeomError is a located geometry diagnostic.
type GeomError struct {
	Problem Problem
	Msg     string
	Loc     syn.Loc
	Loc2    syn.Loc
}

func (e *GeomError) Error() string { return e.Msg }

// Location returns the offending locations.
func (e *GeomError) Location() (syn.Loc, syn.Loc) { return e.Loc, e.Loc2 }

var _ syn.Located = (*GeomError)(nil)

// Opt is the configuration the builder honours.
type Opt struct {
	MaxFn     int
	Empty     Policy
	Collapse  Policy
	Outside2D Policy // 2D object in 3D context
	Outside3D Policy // 3D object in 2D context
	Tol       *geom.Tol
}

// DefaultOpt mirrors the CLI defaults.
func DefaultOpt() *Opt {
	return &Opt{
		MaxFn:     100,
		Empty:     PolicyIgnore,
		Collapse:  PolicyIgnore,
		Outside2D: PolicyError,
		Outside3D: PolicyError,
		Tol:       geom.DefaultTol(),
	}
}

// ResolveFn picks the fragment count for a round primitive of radius r:
// a positive user fn is capped at maxFn; otherwise the count derives from
// the $fa / $fs resolution parameters.
func ResolveFn(d scad.Detail, r float64, maxFn int) int {
	if maxFn < 3 {
		maxFn = 3
	}
	if d.Fn > 0 {
		if d.Fn > maxFn {
			return maxFn
		}
		if d.Fn < 3 {
			return 3
		}
		return d.Fn
	}
	byAngle := 360.0 / d.Fa
	byLen := r * 2 * 3.141592653589793 / d.Fs
	fn := byAngle
	if byLen < fn {
		fn = byLen
	}
	if fn < 5 {
		fn = 5
	}
	n := int(fn + 0.999999)
	if n > maxFn {
		n = maxFn
	}
	return n
}

// PrimBB returns the world-space bounding box of a primitive node.
func PrimBB(n *Node) geom.BB3 {
	bb := geom.EmptyBB3()
	switch d := n.Data.(type) {
	case SphereData:
		extendLocalBox(&bb, d.M,
			v3.Vec{X: -d.R, Y: -d.R, Z: -d.R}, v3.Vec{X: d.R, Y: d.R, Z: d.R})
	case CylData:
		r := d.R1
		if d.R2 > r {
			r = d.R2
		}
		extendLocalBox(&bb, d.M,
			v3.Vec{X: -r, Y: -r, Z: d.Z0}, v3.Vec{X: r, Y: r, Z: d.Z1})
	case PolyData:
		for _, p := range d.Points {
			bb.Extend(p.V)
		}
	case ExtrudeData:
		for _, p := range d.Points {
			extendLocalBox(&bb, d.M,
				v3.Vec{X: p.V.X, Y: p.V.Y, Z: d.Z0},
				v3.Vec{X: p.V.X, Y: p.V.Y, Z: d.Z1})
		}
	}
	return bb
}

// extendLocalBox transforms the 8 corners of a local box and extends bb.
func extendLocalBox(bb *geom.BB3, m geom.Mat4, lo, hi v3.Vec) {
	for i := 0; i < 8; i++ {
		c := v3.Vec{X: lo.X, Y: lo.Y, Z: lo.Z}
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		bb.Extend(m.XformPos(c))
	}
}

// TreeBB computes the bounding box of the whole tree. With withSub set,
// subtracted geometry counts too; otherwise only the positive parts do.
func TreeBB(t *Tree, withSub bool) geom.BB3 {
	bb := geom.EmptyBB3()
	if t.Root != nil {
		nodeBB(&bb, t.Root, withSub)
	}
	return bb
}

func nodeBB(bb *geom.BB3, n *Node, withSub bool) {
	switch n.Kind {
	case KindAdd, KindCut:
		for _, c := range n.Children {
			nodeBB(bb, c, withSub)
		}
	case KindSub:
		if len(n.Children) > 0 {
			nodeBB(bb, n.Children[0], withSub)
			if withSub {
				for _, c := range n.Children[1:] {
					nodeBB(bb, c, withSub)
				}
			}
		}
	default:
		b := PrimBB(n)
		bb.ExtendBB(b)
	}
}
