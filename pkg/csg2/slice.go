package csg2

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// Slice computes the cross-section polygon set of one primitive at the
// world plane z. The result is in world coordinates; an empty set means
// the plane misses the primitive.
func Slice(n *csg3.Node, z float64, tol *geom.Tol) (*Poly, error) {
	switch d := n.Data.(type) {
	case csg3.SphereData:
		return sliceSphere(d, z, n.Loc), nil
	case csg3.CylData:
		return sliceCyl(d, z, n.Loc, tol), nil
	case csg3.ExtrudeData:
		return sliceExtrude(d, z, tol), nil
	case csg3.PolyData:
		return slicePoly(d, z, n.Loc, tol)
	}
	return &Poly{}, nil
}

// localZ maps a world plane height into the primitive's local frame.
// Frozen matrices of analytic primitives are z-separable, so the local
// height is independent of x and y.
func localZ(mi geom.Mat4, z float64) float64 {
	return mi.XformPos(v3.Vec{Z: z}).Z
}

// ngon emits a regular fn-gon of the given local radius at local height
// lz, mapped through the primitive's frozen transform.
func ngon(r, lz float64, fn int, m geom.Mat4, loc syn.Loc) *Poly {
	ring := make([]Vec2Loc, fn)
	for j := 0; j < fn; j++ {
		a := 2 * math.Pi * float64(j) / float64(fn)
		w := m.XformPos(v3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a), Z: lz})
		ring[j] = Vec2Loc{P: v2.Vec{X: w.X, Y: w.Y}, Loc: loc}
	}
	p := &Poly{}
	p.AddPath(ring)
	return p
}

func sliceSphere(d csg3.SphereData, z float64, loc syn.Loc) *Poly {
	lz := localZ(d.MI, z)
	rr := d.R*d.R - lz*lz
	if rr <= 0 {
		return &Poly{}
	}
	return ngon(math.Sqrt(rr), lz, d.Fn, d.M, loc)
}

func sliceCyl(d csg3.CylData, z float64, loc syn.Loc, tol *geom.Tol) *Poly {
	lz := localZ(d.MI, z)
	if lz < d.Z0-tol.Eq || lz > d.Z1+tol.Eq {
		return &Poly{}
	}
	t := (lz - d.Z0) / (d.Z1 - d.Z0)
	r := d.R1 + (d.R2-d.R1)*t
	if r <= tol.Eq {
		return &Poly{}
	}
	return ngon(r, lz, d.Fn, d.M, loc)
}

func sliceExtrude(d csg3.ExtrudeData, z float64, tol *geom.Tol) *Poly {
	lz := localZ(d.MI, z)
	if lz < d.Z0-tol.Eq || lz > d.Z1+tol.Eq {
		return &Poly{}
	}
	p := &Poly{}
	for _, path := range d.Paths {
		ring := make([]Vec2Loc, len(path))
		for i, idx := range path {
			pt := d.Points[idx]
			w := d.M.XformPos(v3.Vec{X: pt.V.X, Y: pt.V.Y, Z: lz})
			ring[i] = Vec2Loc{P: v2.Vec{X: w.X, Y: w.Y}, Loc: pt.Loc}
		}
		p.AddPath(ring)
	}
	return p
}

// sliceSeg is one face/plane intersection segment awaiting stitching.
type sliceSeg struct {
	a, b v2.Vec
	loc  syn.Loc
	used bool
}

// slicePoly intersects the cutting plane with a polyhedron by walking
// its faces: each face that straddles the plane contributes one or more
// line segments, which are then stitched into closed loops by endpoint
// matching within the eq tolerance. The plane is biased away from any
// vertex so no face is ever coplanar with it.
func slicePoly(d csg3.PolyData, z float64, loc syn.Loc, tol *geom.Tol) (*Poly, error) {
	zb := z
	for iter := 0; iter < 8; iter++ {
		hit := false
		for _, p := range d.Points {
			if math.Abs(p.V.Z-zb) < tol.Eq {
				hit = true
				break
			}
		}
		if !hit {
			break
		}
		zb += tol.Eq * 3
	}

	var segs []sliceSeg
	for _, face := range d.Faces {
		cross := faceCrossings(d.Points, face, zb)
		if len(cross) < 2 {
			continue
		}
		// pair the crossings along the intersection line
		dir := lineDir(cross)
		sort.Slice(cross, func(i, j int) bool {
			return cross[i].p.X*dir.X+cross[i].p.Y*dir.Y <
				cross[j].p.X*dir.X+cross[j].p.Y*dir.Y
		})
		for i := 0; i+1 < len(cross); i += 2 {
			a, b := cross[i], cross[i+1]
			if tol.EqV2(a.p, b.p) {
				continue
			}
			segs = append(segs, sliceSeg{a: a.p, b: b.p, loc: a.loc})
		}
	}
	return stitchSegs(segs, loc, tol)
}

type crossing struct {
	p   v2.Vec
	loc syn.Loc
}

// faceCrossings interpolates the points where a face's edges straddle
// the (biased) plane. Faces entirely above or below contribute nothing.
func faceCrossings(pts []scad.Vec3Loc, face []int, zb float64) []crossing {
	var out []crossing
	n := len(face)
	for i := 0; i < n; i++ {
		p0 := pts[face[i]]
		p1 := pts[face[(i+1)%n]]
		if (p0.V.Z < zb) == (p1.V.Z < zb) {
			continue
		}
		t := (zb - p0.V.Z) / (p1.V.Z - p0.V.Z)
		out = append(out, crossing{
			p: v2.Vec{
				X: p0.V.X + t*(p1.V.X-p0.V.X),
				Y: p0.V.Y + t*(p1.V.Y-p0.V.Y),
			},
			loc: p0.Loc,
		})
	}
	return out
}

// lineDir picks the dominant direction of a crossing set, used to order
// crossings along the face's intersection line.
func lineDir(cross []crossing) v2.Vec {
	far := cross[len(cross)-1].p.Sub(cross[0].p)
	for _, c := range cross[1:] {
		d := c.p.Sub(cross[0].p)
		if d.Length() > far.Length() {
			far = d
		}
	}
	l := far.Length()
	if l == 0 {
		return v2.Vec{X: 1}
	}
	return far.DivScalar(l)
}

// stitchSegs chains segments into closed loops by matching endpoints
// within eq. A chain that cannot be closed is a robustness failure.
func stitchSegs(segs []sliceSeg, loc syn.Loc, tol *geom.Tol) (*Poly, error) {
	p := &Poly{}
	for i := range segs {
		if segs[i].used {
			continue
		}
		segs[i].used = true
		ring := []Vec2Loc{{P: segs[i].a, Loc: segs[i].loc}, {P: segs[i].b, Loc: segs[i].loc}}
		cur := segs[i].b
		start := segs[i].a
		for !tol.EqV2(cur, start) {
			found := false
			for j := range segs {
				if segs[j].used {
					continue
				}
				var next v2.Vec
				switch {
				case tol.EqV2(segs[j].a, cur):
					next = segs[j].b
				case tol.EqV2(segs[j].b, cur):
					next = segs[j].a
				default:
					continue
				}
				segs[j].used = true
				cur = next
				if !tol.EqV2(cur, start) {
					ring = append(ring, Vec2Loc{P: cur, Loc: segs[j].loc})
				}
				found = true
				break
			}
			if !found {
				return nil, &BoolError{
					Msg: "cannot close slice contour within tolerance",
					Loc: loc,
				}
			}
		}
		if ringArea(ring) > tol.Sqr {
			p.AddPath(ring)
		}
	}
	return p, nil
}

// ringArea returns the absolute area of a ring of points.
func ringArea(ring []Vec2Loc) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i].P
		b := ring[(i+1)%n].P
		sum += geom.Cross2(a.X, a.Y, b.X, b.Y)
	}
	return math.Abs(sum / 2)
}
