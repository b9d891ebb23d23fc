package csg2

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/laminate/pkg/geom"
)

// rect builds a counter-clockwise rectangle polygon set.
func rect(x0, y0, x1, y1 float64) *Poly {
	p := &Poly{}
	p.AddPath([]Vec2Loc{
		{P: v2.Vec{X: x0, Y: y0}},
		{P: v2.Vec{X: x1, Y: y0}},
		{P: v2.Vec{X: x1, Y: y1}},
		{P: v2.Vec{X: x0, Y: y1}},
	})
	return p
}

func combine(t *testing.T, op BoolOp, operands ...*Poly) *Poly {
	t.Helper()
	r, err := Combine(op, operands, DefaultOpt(), NewScratch())
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	return r
}

func totalArea(p *Poly) float64 {
	return p.Area()
}

func TestUnionIdempotent(t *testing.T) {
	a := rect(-5, -5, 5, 5)
	r := combine(t, OpUnion, a, rect(-5, -5, 5, 5))
	if len(r.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(r.Paths))
	}
	if area := totalArea(r); math.Abs(area-100) > 1e-6 {
		t.Errorf("area = %g, want 100", area)
	}
	if n := len(r.Paths[0].PointIdx); n != 4 {
		t.Errorf("vertices = %d, want 4 after fusing", n)
	}
}

func TestUnionDisjoint(t *testing.T) {
	r := combine(t, OpUnion, rect(0, 0, 1, 1), rect(3, 0, 4, 1))
	if len(r.Paths) != 2 {
		t.Fatalf("paths = %d, want 2", len(r.Paths))
	}
	if area := totalArea(r); math.Abs(area-2) > 1e-6 {
		t.Errorf("area = %g, want 2", area)
	}
}

func TestUnionOverlap(t *testing.T) {
	r := combine(t, OpUnion, rect(0, 0, 10, 10), rect(5, 0, 15, 10))
	if area := totalArea(r); math.Abs(area-150) > 1e-6 {
		t.Errorf("area = %g, want 150", area)
	}
	if len(r.Paths) != 1 {
		t.Errorf("paths = %d, want 1", len(r.Paths))
	}
}

func TestDifference(t *testing.T) {
	// scenario: centred cube minus the same cube moved +5 in x
	a := rect(-5, -5, 5, 5)
	b := rect(0, -5, 10, 5)
	r := combine(t, OpDiff, a, b)
	if len(r.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(r.Paths))
	}
	bb := r.BB()
	if math.Abs(bb.Min.X+5) > 1e-9 || math.Abs(bb.Max.X) > 1e-9 {
		t.Errorf("bb x = %g..%g, want -5..0", bb.Min.X, bb.Max.X)
	}
	if area := totalArea(r); math.Abs(area-50) > 1e-6 {
		t.Errorf("area = %g, want 50", area)
	}
}

func TestDifferenceIsSubsetOfMinuend(t *testing.T) {
	a := rect(-5, -5, 5, 5)
	b := rect(-2, -2, 8, 2)
	r := combine(t, OpDiff, a, b)
	for _, pt := range r.Points {
		if pt.P.X < -5-1e-9 || pt.P.X > 5+1e-9 ||
			pt.P.Y < -5-1e-9 || pt.P.Y > 5+1e-9 {
			t.Errorf("difference vertex %v outside the minuend", pt.P)
		}
	}
}

func TestDifferenceMakesHole(t *testing.T) {
	outer := rect(-10, -10, 10, 10)
	inner := rect(-5, -5, 5, 5)
	r := combine(t, OpDiff, outer, inner)
	if len(r.Paths) != 2 {
		t.Fatalf("paths = %d, want outer plus hole", len(r.Paths))
	}
	if area := totalArea(r); math.Abs(area-300) > 1e-6 {
		t.Errorf("signed area = %g, want 300 (hole subtracts)", area)
	}
	// one CCW outer, one CW hole
	a0 := r.PathArea(r.Paths[0])
	a1 := r.PathArea(r.Paths[1])
	if !(a0 > 0 && a1 < 0 || a0 < 0 && a1 > 0) {
		t.Errorf("ring orientations = %g, %g, want one CCW and one CW", a0, a1)
	}
}

func TestIntersection(t *testing.T) {
	r := combine(t, OpCut, rect(0, 0, 10, 10), rect(5, 5, 15, 15))
	if area := totalArea(r); math.Abs(area-25) > 1e-6 {
		t.Errorf("area = %g, want 25", area)
	}
	bb := r.BB()
	if bb.Min.X != 5 || bb.Max.X != 10 {
		t.Errorf("bb x = %g..%g, want 5..10", bb.Min.X, bb.Max.X)
	}
}

func TestIntersectionCommutes(t *testing.T) {
	a := rect(0, 0, 10, 10)
	b := rect(5, 5, 15, 15)
	r1 := combine(t, OpCut, a, b)
	r2 := combine(t, OpCut, b, a)
	if len(r1.Points) != len(r2.Points) || len(r1.Paths) != len(r2.Paths) {
		t.Fatalf("shapes differ: %d/%d points, %d/%d paths",
			len(r1.Points), len(r2.Points), len(r1.Paths), len(r2.Paths))
	}
	for i := range r1.Points {
		if r1.Points[i].P != r2.Points[i].P {
			t.Errorf("point %d = %v vs %v, want identical output", i,
				r1.Points[i].P, r2.Points[i].P)
		}
	}
}

func TestXorArea(t *testing.T) {
	a := rect(0, 0, 10, 10)
	b := rect(5, 0, 15, 10)
	r := combine(t, OpXor, a, b)
	// |A| + |B| - 2*|A∩B| = 100 + 100 - 100
	if area := totalArea(r); math.Abs(area-100) > 1e-6 {
		t.Errorf("area = %g, want 100", area)
	}
}

func TestXorIdenticalIsEmpty(t *testing.T) {
	a := rect(0, 0, 10, 10)
	r := combine(t, OpXor, a, rect(0, 0, 10, 10))
	if !r.IsEmpty() {
		t.Errorf("xor of identical operands = %d paths, want empty", len(r.Paths))
	}
}

func TestEmptyOperands(t *testing.T) {
	if r := combine(t, OpUnion, &Poly{}, &Poly{}); !r.IsEmpty() {
		t.Errorf("union of empties = %d paths, want empty", len(r.Paths))
	}
	if r := combine(t, OpCut, rect(0, 0, 1, 1), &Poly{}); !r.IsEmpty() {
		t.Errorf("cut with empty = %d paths, want empty", len(r.Paths))
	}
	if r := combine(t, OpDiff, &Poly{}, rect(0, 0, 1, 1)); !r.IsEmpty() {
		t.Errorf("diff with empty minuend = %d paths, want empty", len(r.Paths))
	}
	if r := combine(t, OpDiff, rect(0, 0, 1, 1), &Poly{}); math.Abs(totalArea(r)-1) > 1e-6 {
		t.Errorf("diff with empty subtrahend area = %g, want 1", totalArea(r))
	}
}

func TestOutputOnGrid(t *testing.T) {
	tol := geom.DefaultTol()
	a := &Poly{}
	a.AddPath([]Vec2Loc{
		{P: v2.Vec{X: 0.000123, Y: 0.000456}},
		{P: v2.Vec{X: 7.000789, Y: 0.0001}},
		{P: v2.Vec{X: 7.0002, Y: 6.999}},
		{P: v2.Vec{X: -0.0004, Y: 7.0007}},
	})
	r := combine(t, OpUnion, a)
	for _, pt := range r.Points {
		if pt.P.X != tol.Snap(pt.P.X) || pt.P.Y != tol.Snap(pt.P.Y) {
			t.Errorf("vertex %v not on the pt grid", pt.P)
		}
	}
	if len(r.Paths) != 1 {
		t.Errorf("paths = %d, want 1", len(r.Paths))
	}
}

func TestOuterRingIsCCW(t *testing.T) {
	// operand wound clockwise still normalises to CCW output
	p := &Poly{}
	p.AddPath([]Vec2Loc{
		{P: v2.Vec{X: 0, Y: 0}},
		{P: v2.Vec{X: 0, Y: 4}},
		{P: v2.Vec{X: 4, Y: 4}},
		{P: v2.Vec{X: 4, Y: 0}},
	})
	r := combine(t, OpUnion, p)
	if len(r.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(r.Paths))
	}
	if a := r.PathArea(r.Paths[0]); a <= 0 {
		t.Errorf("outer ring area = %g, want positive (CCW)", a)
	}
}

func TestStagedUnion(t *testing.T) {
	opt := DefaultOpt()
	opt.MaxSimultaneous = 2
	var ops []*Poly
	for i := 0; i < 12; i++ {
		x := float64(i) * 3
		ops = append(ops, rect(x, 0, x+1, 1))
	}
	r, err := Combine(OpUnion, ops, opt, NewScratch())
	if err != nil {
		t.Fatalf("staged union failed: %v", err)
	}
	if len(r.Paths) != 12 {
		t.Errorf("paths = %d, want 12", len(r.Paths))
	}
	if area := totalArea(r); math.Abs(area-12) > 1e-6 {
		t.Errorf("area = %g, want 12", area)
	}
}

func TestCapClamped(t *testing.T) {
	opt := DefaultOpt()
	opt.MaxSimultaneous = 0 // below the lower bound of 2
	r, err := Combine(OpUnion, []*Poly{rect(0, 0, 1, 1), rect(5, 0, 6, 1), rect(10, 0, 11, 1)}, opt, NewScratch())
	if err != nil {
		t.Fatalf("clamped cap union failed: %v", err)
	}
	if len(r.Paths) != 3 {
		t.Errorf("paths = %d, want 3", len(r.Paths))
	}
}

func TestCollinearCollapsing(t *testing.T) {
	// two abutting rectangles unite into one, with the shared edge and
	// its collinear midpoints gone
	r := combine(t, OpUnion, rect(0, 0, 5, 10), rect(5, 0, 10, 10))
	if len(r.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(r.Paths))
	}
	if n := len(r.Paths[0].PointIdx); n != 4 {
		t.Errorf("vertices = %d, want 4 after collinear collapse", n)
	}
	if area := totalArea(r); math.Abs(area-100) > 1e-6 {
		t.Errorf("area = %g, want 100", area)
	}
}
