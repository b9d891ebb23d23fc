package geom

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestNewTolClamps(t *testing.T) {
	tol := NewTol(0.001, 0.01, 0.1)
	if tol.Eq > tol.Pt {
		t.Errorf("eq = %g > pt = %g", tol.Eq, tol.Pt)
	}
	if tol.Sqr > tol.Eq {
		t.Errorf("sqr = %g > eq = %g", tol.Sqr, tol.Eq)
	}
}

func TestSnapGrid(t *testing.T) {
	tol := DefaultTol()
	v := tol.Snap(1.23456789)
	if r := math.Mod(v/tol.Pt, 1); math.Abs(r) > 1e-9 && math.Abs(r-1) > 1e-9 {
		t.Errorf("snapped value %g not on pt grid", v)
	}
	if math.Abs(v-1.23456789) > tol.Pt {
		t.Errorf("snap moved %g too far to %g", 1.23456789, v)
	}
}

func TestMat4MulOrder(t *testing.T) {
	// translate then scale applied to a point: m = T * S means S first
	m := Translate(v3.Vec{X: 1}).Mul(Scale(v3.Vec{X: 2, Y: 2, Z: 2}))
	p := m.XformPos(v3.Vec{X: 3})
	if p.X != 7 {
		t.Errorf("x = %g, want 7 (scale first, then translate)", p.X)
	}
}

func TestMat4Inverse(t *testing.T) {
	m := Translate(v3.Vec{X: 1, Y: 2, Z: 3}).
		Mul(RotateZ(0.5)).
		Mul(Scale(v3.Vec{X: 2, Y: 3, Z: 4}))
	mi, ok := m.Inverse()
	if !ok {
		t.Fatal("inverse of a regular matrix failed")
	}
	p := v3.Vec{X: 0.7, Y: -1.3, Z: 2.9}
	q := mi.XformPos(m.XformPos(p))
	if q.Sub(p).Length() > 1e-12 {
		t.Errorf("round trip moved %v to %v", p, q)
	}
}

func TestMat4SingularInverse(t *testing.T) {
	if _, ok := Scale(v3.Vec{X: 0, Y: 1, Z: 1}).Inverse(); ok {
		t.Error("inverse of a collapsing scale succeeded")
	}
}

func TestMat4Det3(t *testing.T) {
	if d := Scale(v3.Vec{X: 2, Y: 3, Z: 4}).Det3(); d != 24 {
		t.Errorf("det = %g, want 24", d)
	}
	if d := Mirror(v3.Vec{X: 1}).Det3(); math.Abs(d+1) > 1e-12 {
		t.Errorf("mirror det = %g, want -1", d)
	}
}

func TestZSeparable(t *testing.T) {
	eq := DefaultTol().Eq
	if !Translate(v3.Vec{X: 5, Z: 3}).ZSeparable(eq) {
		t.Error("translation should be z-separable")
	}
	if !RotateZ(1.0).ZSeparable(eq) {
		t.Error("z rotation should be z-separable")
	}
	if RotateX(0.7).ZSeparable(eq) {
		t.Error("x rotation should not be z-separable")
	}
	if Scale(v3.Vec{X: 1, Y: 1, Z: 0}).ZSeparable(eq) {
		t.Error("z-collapsing scale should not be z-separable")
	}
}

func TestRangeCount(t *testing.T) {
	tests := []struct {
		min, max, step float64
		cnt            int
	}{
		{2.5, 10, 5, 2},
		{0, 10, 5, 3},
		{0, 0, 5, 1},
		{5, 0, 5, 1},  // inverted interval still yields one layer
		{0, 10, 0, 1}, // degenerate step
	}
	for _, tt := range tests {
		r := NewRange(tt.min, tt.max, tt.step)
		if r.Cnt != tt.cnt {
			t.Errorf("NewRange(%g,%g,%g).Cnt = %d, want %d",
				tt.min, tt.max, tt.step, r.Cnt, tt.cnt)
		}
	}
}

func TestRangeZ(t *testing.T) {
	r := NewRange(2.5, 10, 5)
	for i := 0; i < r.Cnt; i++ {
		want := 2.5 + float64(i)*5
		if z := r.Z(i); z != want {
			t.Errorf("Z(%d) = %g, want %g", i, z, want)
		}
	}
}

func TestBB3(t *testing.T) {
	bb := EmptyBB3()
	if !bb.IsEmpty() {
		t.Fatal("new box should be empty")
	}
	bb.Extend(v3.Vec{X: 1, Y: -2, Z: 3})
	bb.Extend(v3.Vec{X: -1, Y: 2, Z: -3})
	if bb.IsEmpty() {
		t.Fatal("box with points should not be empty")
	}
	if bb.Min.X != -1 || bb.Max.X != 1 || bb.Min.Z != -3 || bb.Max.Z != 3 {
		t.Errorf("bb = %v..%v, want -1..1 / -3..3", bb.Min, bb.Max)
	}
}
