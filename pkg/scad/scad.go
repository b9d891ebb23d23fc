// Package scad lowers the untyped syntax tree to a typed call tree: every
// functor is resolved to a known kind, its arguments are bound, coerced
// and constant-folded, and $fn/$fa/$fs are baked into the primitives.
package scad

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/syn"
)

// Kind enumerates the recognised functors.
type Kind int

const (
	// 3D primitives
	KindCube Kind = iota
	KindSphere
	KindCylinder
	KindPolyhedron

	// 2D primitives
	KindSquare
	KindCircle
	KindPolygon

	// combinators
	KindUnion
	KindDifference
	KindIntersection
	KindGroup

	// transforms
	KindTranslate
	KindRotate
	KindScale
	KindMirror
	KindMultmatrix
	KindLinearExtrude
)

func (k Kind) String() string {
	switch k {
	case KindCube:
		return "cube"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindPolyhedron:
		return "polyhedron"
	case KindSquare:
		return "square"
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindUnion:
		return "union"
	case KindDifference:
		return "difference"
	case KindIntersection:
		return "intersection"
	case KindGroup:
		return "group"
	case KindTranslate:
		return "translate"
	case KindRotate:
		return "rotate"
	case KindScale:
		return "scale"
	case KindMirror:
		return "mirror"
	case KindMultmatrix:
		return "multmatrix"
	case KindLinearExtrude:
		return "linear_extrude"
	default:
		return "unknown"
	}
}

// IsTransform reports whether the kind is a transform over its children.
func (k Kind) IsTransform() bool {
	switch k {
	case KindTranslate, KindRotate, KindScale, KindMirror, KindMultmatrix,
		KindLinearExtrude:
		return true
	}
	return false
}

// IsCombinator reports whether the kind combines its children.
func (k Kind) IsCombinator() bool {
	switch k {
	case KindUnion, KindDifference, KindIntersection, KindGroup:
		return true
	}
	return false
}

// Is2D reports whether the kind is a 2D primitive.
func (k Kind) Is2D() bool {
	switch k {
	case KindSquare, KindCircle, KindPolygon:
		return true
	}
	return false
}

// Node is one typed call. Children is non-nil only for combinators and
// transforms; Data holds the kind-specific attributes.
type Node struct {
	Kind     Kind
	Loc      syn.Loc
	Mod      syn.Modifier
	Children []*Node
	Data     NodeData
}

// NodeData is the interface for kind-specific payloads.
type NodeData interface {
	scadData() // marker method restricting implementations to this package
}

// Detail carries the resolved polygon-approximation parameters for round
// primitives. Fn == 0 means unset; the fragment count is then derived from
// Fa/Fs and the radius when the primitive is built.
type Detail struct {
	Fn int
	Fa float64
	Fs float64
}

// Vec3Loc is a 3D point that remembers where in the source it came from.
type Vec3Loc struct {
	V   v3.Vec
	Loc syn.Loc
}

// Vec2Loc is a 2D point that remembers where in the source it came from.
type Vec2Loc struct {
	V   v2.Vec
	Loc syn.Loc
}

// CubeData is a cube primitive.
type CubeData struct {
	Size   v3.Vec
	Center bool
}

// SphereData is a sphere primitive.
type SphereData struct {
	R      float64
	Detail Detail
}

// CylinderData is a cylinder or cone primitive.
type CylinderData struct {
	H      float64
	R1, R2 float64
	Center bool
	Detail Detail
}

// PolyhedronData is a generic polyhedron with explicit faces. Face indices
// refer into Points; faces are listed with outward-facing orientation.
type PolyhedronData struct {
	Points []Vec3Loc
	Faces  [][]int
}

// SquareData is a 2D rectangle primitive.
type SquareData struct {
	Size   v2.Vec
	Center bool
}

// CircleData is a 2D circle primitive.
type CircleData struct {
	R      float64
	Detail Detail
}

// PolygonData is a 2D polygon with optional explicit paths. With no paths,
// all points form one ring.
type PolygonData struct {
	Points []Vec2Loc
	Paths  [][]int
}

// TranslateData moves children by V.
type TranslateData struct {
	V v3.Vec
}

// RotateData rotates children. With Axis nil the three components of A are
// Euler angles in degrees (applied x, then y, then z); with Axis set, A.Z
// is an angle around that axis.
type RotateData struct {
	A    v3.Vec
	Axis *v3.Vec
}

// ScaleData scales children by V along the axes.
type ScaleData struct {
	V v3.Vec
}

// MirrorData reflects children across the plane with normal V.
type MirrorData struct {
	V v3.Vec
}

// MultmatrixData applies an explicit affine matrix to children.
type MultmatrixData struct {
	M geom.Mat4
}

// LinearExtrudeData extrudes 2D children along z.
type LinearExtrudeData struct {
	Height float64
	Center bool
	Detail Detail
}

func (CubeData) scadData()          {}
func (SphereData) scadData()        {}
func (CylinderData) scadData()      {}
func (PolyhedronData) scadData()    {}
func (SquareData) scadData()        {}
func (CircleData) scadData()        {}
func (PolygonData) scadData()       {}
func (TranslateData) scadData()     {}
func (RotateData) scadData()        {}
func (ScaleData) scadData()         {}
func (MirrorData) scadData()        {}
func (MultmatrixData) scadData()    {}
func (LinearExtrudeData) scadData() {}

// Tree is the lowered file: the toplevel nodes plus the '!'-marked root,
// if any. When Root is set, everything else is dropped from rendering.
type Tree struct {
	Top  []*Node
	Root *Node
}

// Error is a located lowering error: unknown functor, bad argument shape,
// missing required argument.
type Error struct {
	Msg  string
	Loc  syn.Loc
	Loc2 syn.Loc
}

func (e *Error) Error() string { return e.Msg }

// Location returns the offending locations.
func (e *Error) Location() (syn.Loc, syn.Loc) { return e.Loc, e.Loc2 }

var _ syn.Located = (*Error)(nil)
