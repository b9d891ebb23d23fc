package csg2

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/syn"
)

// BoolOp selects the Boolean function applied over the operands.
type BoolOp int

const (
	OpUnion BoolOp = iota // interior of any operand
	OpCut                 // interior of every operand
	OpDiff                // first operand minus the rest
	OpXor                 // odd number of operand interiors
)

// bedge is one directed operand edge after grid snapping.
type bedge struct {
	a, b v2.Vec
	loc  syn.Loc
	op   int
}

// useg is one undirected unique segment produced by splitting.
type useg struct {
	a, b v2.Vec
	loc  syn.Loc
}

// Combine evaluates a Boolean over the operand polygon sets and returns
// one flat set: paths simple and closed, outer rings counter-clockwise,
// holes clockwise, all vertices on the pt grid. When there are more
// operands than the configured simultaneous cap, the evaluation is
// staged.
func Combine(op BoolOp, operands []*Poly, opt *Opt, s *Scratch) (*Poly, error) {
	operands, short := prune(op, operands, opt)
	if short != nil {
		return short, nil
	}

	max := opt.cap()
	if len(operands) > max {
		return combineStaged(op, operands, opt, s, max)
	}
	return combineFlat(boolFunc(op), operands, opt, s)
}

// prune applies the operand-level shortcuts: empty operands vanish from
// a union, empty any-operand kills an intersection, an empty minuend
// kills a difference. The second result short-circuits the whole call
// when non-nil.
func prune(op BoolOp, operands []*Poly, opt *Opt) ([]*Poly, *Poly) {
	switch op {
	case OpCut:
		for _, o := range operands {
			if o.IsEmpty() {
				return nil, &Poly{}
			}
		}
		return operands, nil

	case OpDiff:
		if len(operands) == 0 || operands[0].IsEmpty() {
			return nil, &Poly{}
		}
		kept := []*Poly{operands[0]}
		for _, o := range operands[1:] {
			if !opt.SkipEmpty || !o.IsEmpty() {
				kept = append(kept, o)
			}
		}
		return kept, nil

	default:
		if !opt.SkipEmpty {
			return operands, nil
		}
		var kept []*Poly
		for _, o := range operands {
			if !o.IsEmpty() {
				kept = append(kept, o)
			}
		}
		return kept, nil
	}
}

// combineStaged partitions the operands into groups of at most max and
// evaluates in stages. Union, intersection and xor are associative; a
// difference keeps its first operand and unions the subtrahends first.
func combineStaged(op BoolOp, operands []*Poly, opt *Opt, s *Scratch, max int) (*Poly, error) {
	if op == OpDiff {
		rest, err := Combine(OpUnion, operands[1:], opt, s)
		if err != nil {
			return nil, err
		}
		return combineFlat(boolFunc(OpDiff), []*Poly{operands[0], rest}, opt, s)
	}

	var stage []*Poly
	for lo := 0; lo < len(operands); lo += max {
		hi := lo + max
		if hi > len(operands) {
			hi = len(operands)
		}
		r, err := combineFlat(boolFunc(op), operands[lo:hi], opt, s)
		if err != nil {
			return nil, err
		}
		stage = append(stage, r)
	}
	return Combine(op, stage, opt, s)
}

func boolFunc(op BoolOp) func([]bool) bool {
	switch op {
	case OpCut:
		return func(in []bool) bool {
			for _, b := range in {
				if !b {
					return false
				}
			}
			return len(in) > 0
		}
	case OpDiff:
		return func(in []bool) bool {
			if len(in) == 0 || !in[0] {
				return false
			}
			for _, b := range in[1:] {
				if b {
					return false
				}
			}
			return true
		}
	case OpXor:
		return func(in []bool) bool {
			odd := false
			for _, b := range in {
				if b {
					odd = !odd
				}
			}
			return odd
		}
	default:
		return func(in []bool) bool {
			for _, b := range in {
				if b {
					return true
				}
			}
			return false
		}
	}
}

// combineFlat is the evaluator core: snap all operand rings onto the pt
// grid, split every edge at its intersections with all other edges,
// classify each unique sub-segment by sampling the Boolean function on
// both of its sides, keep the segments where the result changes, and
// stitch them back into rings with the interior on the left.
func combineFlat(fn func([]bool) bool, operands []*Poly, opt *Opt, s *Scratch) (*Poly, error) {
	if len(operands) == 0 {
		return &Poly{}, nil
	}
	tol := opt.Tol

	// operand rings, snapped; ringOp[i] tells which operand ring i is from
	rings := s.rings[:0]
	var ringOp []int
	edges := s.edges[:0]
	for oi, o := range operands {
		if o == nil {
			continue
		}
		for _, path := range o.Paths {
			ring := snapRing(o, path, tol)
			if len(ring) < 3 {
				continue
			}
			rings = append(rings, ring)
			ringOp = append(ringOp, oi)
			for i := range ring {
				j := (i + 1) % len(ring)
				edges = append(edges, bedge{
					a:   ring[i],
					b:   ring[j],
					loc: o.Points[path.PointIdx[i]].Loc,
					op:  oi,
				})
			}
		}
	}
	s.rings, s.edges = rings, edges
	if len(edges) == 0 {
		return &Poly{}, nil
	}

	// split all edges into unique sub-segments
	segMap := make(map[[4]float64]useg)
	for i := range edges {
		splitEdge(&edges[i], edges, i, tol, s, func(a, b v2.Vec, loc syn.Loc) {
			if a.X == b.X && a.Y == b.Y {
				return
			}
			k := segKey(a, b)
			if _, ok := segMap[k]; !ok {
				segMap[k] = useg{a: a, b: b, loc: loc}
			}
		})
	}
	segs := s.segs[:0]
	for _, sg := range segMap {
		segs = append(segs, sg)
	}
	sort.Slice(segs, func(i, j int) bool {
		return segLess(segs[i], segs[j])
	})
	s.segs = segs

	// classify each segment by the Boolean on both sides
	in := make([]bool, len(operands))
	var kept []dirEdge
	d := tol.Pt * 0.25
	for _, sg := range segs {
		mid := v2.Vec{X: (sg.a.X + sg.b.X) / 2, Y: (sg.a.Y + sg.b.Y) / 2}
		dir := sg.b.Sub(sg.a)
		l := dir.Length()
		if l == 0 {
			continue
		}
		nrm := v2.Vec{X: -dir.Y / l, Y: dir.X / l}

		insideAt(rings, ringOp, len(operands), mid.Add(nrm.MulScalar(d)), in)
		left := fn(in)
		insideAt(rings, ringOp, len(operands), mid.Sub(nrm.MulScalar(d)), in)
		right := fn(in)

		if left == right {
			continue
		}
		if left {
			kept = append(kept, dirEdge{a: sg.a, b: sg.b, loc: sg.loc})
		} else {
			kept = append(kept, dirEdge{a: sg.b, b: sg.a, loc: sg.loc})
		}
	}

	return stitchRings(kept, opt)
}

func snapRing(o *Poly, path Path, tol *geom.Tol) []v2.Vec {
	ring := make([]v2.Vec, 0, len(path.PointIdx))
	for _, idx := range path.PointIdx {
		q := tol.Snap2(o.Points[idx].P)
		if n := len(ring); n > 0 && ring[n-1].X == q.X && ring[n-1].Y == q.Y {
			continue
		}
		ring = append(ring, q)
	}
	// drop a duplicated closing point
	if n := len(ring); n > 1 && ring[0].X == ring[n-1].X && ring[0].Y == ring[n-1].Y {
		ring = ring[:n-1]
	}
	return ring
}

func segKey(a, b v2.Vec) [4]float64 {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return [4]float64{a.X, a.Y, b.X, b.Y}
}

func segLess(a, b useg) bool {
	ka, kb := segKey(a.a, a.b), segKey(b.a, b.b)
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

// splitEdge cuts edge e at every crossing with, and near-touch by, any
// other edge, and emits the snapped sub-segments.
func splitEdge(e *bedge, all []bedge, self int, tol *geom.Tol, s *Scratch, emit func(a, b v2.Vec, loc syn.Loc)) {
	r := e.b.Sub(e.a)
	len2 := r.Dot(r)
	if len2 == 0 {
		return
	}
	ts := append(s.ts[:0], 0, 1)

	for j := range all {
		if j == self {
			continue
		}
		f := &all[j]

		// endpoints of f lying on e (T junctions, collinear overlap ends)
		for _, q := range [2]v2.Vec{f.a, f.b} {
			t := q.Sub(e.a).Dot(r) / len2
			if t <= 0 || t >= 1 {
				continue
			}
			proj := e.a.Add(r.MulScalar(t))
			if proj.Sub(q).Length() < tol.Eq {
				ts = append(ts, t)
			}
		}

		// proper crossings
		fs := f.b.Sub(f.a)
		denom := geom.Cross2(r.X, r.Y, fs.X, fs.Y)
		if math.Abs(denom) > 1e-12 {
			w := f.a.Sub(e.a)
			t := geom.Cross2(w.X, w.Y, fs.X, fs.Y) / denom
			u := geom.Cross2(w.X, w.Y, r.X, r.Y) / denom
			if t > 0 && t < 1 && u >= 0 && u <= 1 {
				ts = append(ts, t)
			}
		}
	}
	s.ts = ts

	sort.Float64s(ts)
	prev := e.a
	for _, t := range ts[1:] {
		q := tol.Snap2(e.a.Add(r.MulScalar(t)))
		if q.X == prev.X && q.Y == prev.Y {
			continue
		}
		emit(prev, q, e.loc)
		prev = q
	}
}

// insideAt fills in[k] with the even-odd interior test of operand k at p.
func insideAt(rings [][]v2.Vec, ringOp []int, nOps int, p v2.Vec, in []bool) {
	for k := 0; k < nOps; k++ {
		in[k] = false
	}
	for ri, ring := range rings {
		k := ringOp[ri]
		n := len(ring)
		for i := 0; i < n; i++ {
			a, b := ring[i], ring[(i+1)%n]
			if (a.Y > p.Y) != (b.Y > p.Y) {
				x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
				if p.X < x {
					in[k] = !in[k]
				}
			}
		}
	}
}

// dirEdge is a kept boundary segment, directed with the interior on its
// left.
type dirEdge struct {
	a, b v2.Vec
	loc  syn.Loc
	used bool
}

// stitchRings links the kept directed edges into closed paths. At a
// junction the walk continues with the most counter-clockwise outgoing
// edge relative to the reversed incoming direction, which keeps every
// ring simple.
func stitchRings(kept []dirEdge, opt *Opt) (*Poly, error) {
	tol := opt.Tol
	sort.Slice(kept, func(i, j int) bool {
		ka := [4]float64{kept[i].a.X, kept[i].a.Y, kept[i].b.X, kept[i].b.Y}
		kb := [4]float64{kept[j].a.X, kept[j].a.Y, kept[j].b.X, kept[j].b.Y}
		for x := range ka {
			if ka[x] != kb[x] {
				return ka[x] < kb[x]
			}
		}
		return false
	})

	out := make(map[[2]float64][]int)
	for i := range kept {
		k := [2]float64{kept[i].a.X, kept[i].a.Y}
		out[k] = append(out[k], i)
	}

	p := &Poly{}
	ptIdx := make(map[[2]float64]int)
	for i := range kept {
		if kept[i].used {
			continue
		}
		ring, ok := walkRing(kept, out, i)
		if !ok {
			return nil, &BoolError{
				Msg: "cannot close boolean result boundary within tolerance",
				Loc: kept[i].loc,
			}
		}
		emitRing(p, ring, kept, ptIdx, opt, tol)
	}
	return p, nil
}

// walkRing follows edges from start until the walk returns to the start
// vertex. It returns the edge indices of the ring.
func walkRing(kept []dirEdge, out map[[2]float64][]int, start int) ([]int, bool) {
	var ring []int
	cur := start
	startPt := kept[start].a
	for {
		kept[cur].used = true
		ring = append(ring, cur)
		at := kept[cur].b
		if at.X == startPt.X && at.Y == startPt.Y {
			return ring, true
		}
		next := -1
		bestDelta := -1.0
		inDir := kept[cur].a.Sub(kept[cur].b) // reversed incoming
		inAng := math.Atan2(inDir.Y, inDir.X)
		for _, j := range out[[2]float64{at.X, at.Y}] {
			if kept[j].used {
				continue
			}
			d := kept[j].b.Sub(kept[j].a)
			ang := math.Atan2(d.Y, d.X)
			delta := ang - inAng
			for delta <= 0 {
				delta += 2 * math.Pi
			}
			if delta > bestDelta {
				bestDelta = delta
				next = j
			}
		}
		if next < 0 {
			return nil, false
		}
		cur = next
	}
}

// emitRing copies a walked ring into the output set, fusing duplicate
// vertices, optionally collapsing collinear chains, and dropping
// zero-area rings.
func emitRing(p *Poly, ring []int, kept []dirEdge, ptIdx map[[2]float64]int, opt *Opt, tol *geom.Tol) {
	pts := make([]Vec2Loc, 0, len(ring))
	for _, ei := range ring {
		pts = append(pts, Vec2Loc{P: kept[ei].a, Loc: kept[ei].loc})
	}

	if opt.DropCollinear {
		pts = dropCollinear(pts, tol)
	}
	if len(pts) < 3 {
		return
	}
	if ringArea(pts) <= tol.Sqr {
		return
	}

	idx := make([]int, 0, len(pts))
	for _, pt := range pts {
		k := [2]float64{pt.P.X, pt.P.Y}
		i, ok := ptIdx[k]
		if !ok {
			i = len(p.Points)
			p.Points = append(p.Points, pt)
			ptIdx[k] = i
		}
		idx = append(idx, i)
	}
	p.Paths = append(p.Paths, Path{PointIdx: idx})
}

// dropCollinear removes vertices whose neighbours continue straight
// through them.
func dropCollinear(pts []Vec2Loc, tol *geom.Tol) []Vec2Loc {
	n := len(pts)
	if n < 3 {
		return pts
	}
	outPts := make([]Vec2Loc, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n].P
		cur := pts[i].P
		next := pts[(i+1)%n].P
		d1 := cur.Sub(prev)
		d2 := next.Sub(cur)
		if math.Abs(geom.Cross2(d1.X, d1.Y, d2.X, d2.Y)) <= tol.Sqr && d1.Dot(d2) > 0 {
			continue
		}
		outPts = append(outPts, pts[i])
	}
	return outPts
}
