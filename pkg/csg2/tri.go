package csg2

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/laminate/pkg/geom"
)

// Triangulate decomposes every polygon of a flat layer into triangles
// and stores them on the set. Holes are bridged into their containing
// outer ring, then each merged ring is ear-clipped. All triangle corners
// are vertices of the input; no new points are introduced, and every
// emitted triangle has area above the sqr tolerance. The algorithm is
// deterministic for a given input.
func Triangulate(p *Poly, tol *geom.Tol) error {
	p.Tris = p.Tris[:0]
	if p.IsEmpty() {
		return nil
	}

	type ringInfo struct {
		idx   []int
		area  float64
		holes []int // indices into holes slice below
	}
	var outers []ringInfo
	var holes [][]int
	for _, path := range p.Paths {
		a := p.PathArea(path)
		if math.Abs(a) <= tol.Sqr {
			continue
		}
		if a > 0 {
			outers = append(outers, ringInfo{idx: path.PointIdx, area: a})
		} else {
			holes = append(holes, path.PointIdx)
		}
	}

	// assign each hole to the smallest outer ring containing it
	for hi, hole := range holes {
		best := -1
		for oi, o := range outers {
			if !ringContains(p, o.idx, p.Points[hole[0]].P) {
				continue
			}
			if best < 0 || o.area < outers[best].area {
				best = oi
			}
		}
		if best >= 0 {
			outers[best].holes = append(outers[best].holes, hi)
		}
	}

	for _, o := range outers {
		ring := append([]int(nil), o.idx...)
		hs := make([][]int, 0, len(o.holes))
		for _, hi := range o.holes {
			hs = append(hs, holes[hi])
		}
		// bridge holes right-to-left so earlier bridges stay valid
		sort.SliceStable(hs, func(i, j int) bool {
			return maxXVertex(p, hs[i]) > maxXVertex(p, hs[j])
		})
		var err error
		for _, h := range hs {
			ring, err = bridgeHole(p, ring, h, tol)
			if err != nil {
				return err
			}
		}
		if err := earClip(p, ring, tol); err != nil {
			return err
		}
	}
	return nil
}

func maxXVertex(p *Poly, ring []int) float64 {
	m := math.Inf(-1)
	for _, i := range ring {
		if p.Points[i].P.X > m {
			m = p.Points[i].P.X
		}
	}
	return m
}

// ringContains is the even-odd interior test against one ring.
func ringContains(p *Poly, ring []int, pt v2.Vec) bool {
	in := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a := p.Points[ring[i]].P
		b := p.Points[ring[(i+1)%n]].P
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < x {
				in = !in
			}
		}
	}
	return in
}

// bridgeHole splices a hole ring into the outer ring through a mutually
// visible vertex pair. The hole keeps its clockwise order, so the merged
// ring stays consistently counter-clockwise.
func bridgeHole(p *Poly, outer []int, hole []int, tol *geom.Tol) ([]int, error) {
	// hole vertex with maximum x is guaranteed to see the outer boundary
	hi := 0
	for i, idx := range hole {
		if p.Points[idx].P.X > p.Points[hole[hi]].P.X {
			hi = i
		}
	}
	m := p.Points[hole[hi]].P

	// outer candidates by distance from m
	order := make([]int, len(outer))
	for i := range outer {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da := p.Points[outer[order[a]]].P.Sub(m).Length()
		db := p.Points[outer[order[b]]].P.Sub(m).Length()
		return da < db
	})

	for _, oi := range order {
		v := p.Points[outer[oi]].P
		if !segmentClear(p, outer, hole, m, v, tol) {
			continue
		}
		// splice: ..., v, m, hole..., m, v, ...
		merged := make([]int, 0, len(outer)+len(hole)+2)
		merged = append(merged, outer[:oi+1]...)
		for k := 0; k <= len(hole); k++ {
			merged = append(merged, hole[(hi+k)%len(hole)])
		}
		merged = append(merged, outer[oi:]...)
		return merged, nil
	}
	return nil, &BoolError{
		Msg: "cannot bridge hole for triangulation",
		Loc: p.Points[hole[hi]].Loc,
	}
}

// segmentClear reports whether the open segment m-v crosses no ring edge
// and runs through the polygon interior.
func segmentClear(p *Poly, outer, hole []int, m, v v2.Vec, tol *geom.Tol) bool {
	if m.Sub(v).Length() < tol.Eq {
		return false
	}
	check := func(ring []int) bool {
		n := len(ring)
		for i := 0; i < n; i++ {
			a := p.Points[ring[i]].P
			b := p.Points[ring[(i+1)%n]].P
			if segsCross(m, v, a, b, tol) {
				return false
			}
		}
		return true
	}
	if !check(outer) || !check(hole) {
		return false
	}
	mid := v2.Vec{X: (m.X + v.X) / 2, Y: (m.Y + v.Y) / 2}
	return ringContains(p, outer, mid) && !ringContains(p, hole, mid)
}

// segsCross reports a proper interior crossing of two segments; shared
// endpoints do not count.
func segsCross(a1, a2, b1, b2 v2.Vec, tol *geom.Tol) bool {
	r := a2.Sub(a1)
	s := b2.Sub(b1)
	denom := geom.Cross2(r.X, r.Y, s.X, s.Y)
	if math.Abs(denom) < 1e-12 {
		return false
	}
	w := b1.Sub(a1)
	t := geom.Cross2(w.X, w.Y, s.X, s.Y) / denom
	u := geom.Cross2(w.X, w.Y, r.X, r.Y) / denom
	eps := 1e-9
	return t > eps && t < 1-eps && u > eps && u < 1-eps
}

// earClip triangulates one counter-clockwise merged ring.
func earClip(p *Poly, ring []int, tol *geom.Tol) error {
	idx := append([]int(nil), ring...)
	guard := 0
	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			if isEar(p, idx, i, tol) {
				emitTri(p, idx, i, tol)
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
		}
		if !clipped {
			// tolerate slivers: clip the flattest convex corner
			i := flattestCorner(p, idx)
			if i < 0 {
				return &BoolError{
					Msg: "cannot triangulate polygon",
					Loc: p.Points[idx[0]].Loc,
				}
			}
			emitTri(p, idx, i, tol)
			idx = append(idx[:i], idx[i+1:]...)
		}
		guard++
		if guard > 4*len(ring)+16 {
			return &BoolError{
				Msg: "cannot triangulate polygon",
				Loc: p.Points[ring[0]].Loc,
			}
		}
	}
	if len(idx) == 3 {
		emitTri(p, idx, 1, tol)
	}
	return nil
}

func triCorners(p *Poly, idx []int, i int) (a, b, c v2.Vec) {
	n := len(idx)
	a = p.Points[idx[(i+n-1)%n]].P
	b = p.Points[idx[i]].P
	c = p.Points[idx[(i+1)%n]].P
	return
}

func isEar(p *Poly, idx []int, i int, tol *geom.Tol) bool {
	n := len(idx)
	a, b, c := triCorners(p, idx, i)
	if geom.Cross2(b.X-a.X, b.Y-a.Y, c.X-b.X, c.Y-b.Y) <= tol.Sqr {
		return false // reflex or flat corner
	}
	for k := 0; k < n; k++ {
		if k == i || k == (i+n-1)%n || k == (i+1)%n {
			continue
		}
		q := p.Points[idx[k]].P
		if q.X == a.X && q.Y == a.Y || q.X == b.X && q.Y == b.Y || q.X == c.X && q.Y == c.Y {
			continue // bridge duplicates share coordinates
		}
		if pointInTri(q, a, b, c) {
			return false
		}
	}
	return true
}

func pointInTri(q, a, b, c v2.Vec) bool {
	d1 := geom.Cross2(b.X-a.X, b.Y-a.Y, q.X-a.X, q.Y-a.Y)
	d2 := geom.Cross2(c.X-b.X, c.Y-b.Y, q.X-b.X, q.Y-b.Y)
	d3 := geom.Cross2(a.X-c.X, a.Y-c.Y, q.X-c.X, q.Y-c.Y)
	return d1 > 0 && d2 > 0 && d3 > 0
}

// flattestCorner picks a convex corner to clip when no strict ear
// exists; -1 when the ring has no convex corner at all.
func flattestCorner(p *Poly, idx []int) int {
	best := -1
	bestArea := math.Inf(1)
	for i := range idx {
		a, b, c := triCorners(p, idx, i)
		cr := geom.Cross2(b.X-a.X, b.Y-a.Y, c.X-b.X, c.Y-b.Y)
		if cr <= 0 {
			continue
		}
		if cr < bestArea {
			bestArea = cr
			best = i
		}
	}
	return best
}

// emitTri records the triangle at corner i unless it is degenerate.
func emitTri(p *Poly, idx []int, i int, tol *geom.Tol) {
	n := len(idx)
	ia := idx[(i+n-1)%n]
	ib := idx[i]
	ic := idx[(i+1)%n]
	a, b, c := p.Points[ia].P, p.Points[ib].P, p.Points[ic].P
	area := geom.Cross2(b.X-a.X, b.Y-a.Y, c.X-a.X, c.Y-a.Y) / 2
	if area <= tol.Sqr {
		return
	}
	p.Tris = append(p.Tris, [3]int{ia, ib, ic})
}
