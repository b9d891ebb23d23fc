package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/laminate/pkg/csg2"
	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/syn"
)

func runSrc(t *testing.T, src string, tweak func(*Options)) *Pipeline {
	t.Helper()
	opt := Default()
	opt.NoDiff = true
	if tweak != nil {
		tweak(opt)
	}
	p := New(opt)
	if err := p.Run("test.scad", []byte(src)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return p
}

func layerArea(l *csg2.Layer) float64 {
	return l.Poly.Area()
}

func TestCubeLayers(t *testing.T) {
	// cube(10) with step 5: layers sample at the layer centres
	p := runSrc(t, "cube(10);", func(o *Options) { o.ZStep = 5 })
	if p.Range.Cnt != 2 {
		t.Fatalf("layer count = %d, want 2", p.Range.Cnt)
	}
	wantZ := []float64{-2.5, 2.5}
	for i, l := range p.Layers {
		if math.Abs(l.Z-wantZ[i]) > 1e-9 {
			t.Errorf("layer %d z = %g, want %g", i, l.Z, wantZ[i])
		}
		if a := layerArea(l); math.Abs(a-100) > 1e-6 {
			t.Errorf("layer %d area = %g, want 100", i, a)
		}
		bb := l.Poly.BB()
		if math.Abs(bb.Min.X+5) > 1e-6 || math.Abs(bb.Max.X-5) > 1e-6 {
			t.Errorf("layer %d bb x = %g..%g, want centred -5..5", i, bb.Min.X, bb.Max.X)
		}
	}
}

func TestLayerZLaw(t *testing.T) {
	p := runSrc(t, "cube(10);", func(o *Options) {
		o.ZStep = 2
		o.ZMin, o.HaveZMin = -4, true
		o.ZMax, o.HaveZMax = 4, true
	})
	if p.Range.Cnt != len(p.Layers) {
		t.Fatalf("layers = %d, range.cnt = %d", len(p.Layers), p.Range.Cnt)
	}
	if p.Range.Cnt != 5 {
		t.Fatalf("layer count = %d, want 5", p.Range.Cnt)
	}
	for i, l := range p.Layers {
		want := -4 + float64(i)*2
		if l.Z != want {
			t.Errorf("layer %d z = %g, want z_min + i*step = %g", i, l.Z, want)
		}
	}
}

func TestDifferenceScenario(t *testing.T) {
	src := "difference(){ cube(10); translate([5,0,0]) cube(10); }"
	p := runSrc(t, src, func(o *Options) {
		o.ZStep = 5
		o.ZMin, o.HaveZMin = -2.5, true
	})
	if len(p.Layers) != 2 {
		t.Fatalf("layer count = %d, want 2", len(p.Layers))
	}
	for i, l := range p.Layers {
		bb := l.Poly.BB()
		if math.Abs(bb.Min.X+5) > 1e-6 || math.Abs(bb.Max.X) > 1e-6 {
			t.Errorf("layer %d x = %g..%g, want -5..0", i, bb.Min.X, bb.Max.X)
		}
		if a := layerArea(l); math.Abs(a-50) > 1e-6 {
			t.Errorf("layer %d area = %g, want 5x10 = 50", i, a)
		}
	}
}

func TestUnionIdempotentScenario(t *testing.T) {
	p1 := runSrc(t, "union() { cube(10); cube(10); }", func(o *Options) { o.ZStep = 5 })
	p2 := runSrc(t, "cube(10);", func(o *Options) { o.ZStep = 5 })
	if len(p1.Layers) != len(p2.Layers) {
		t.Fatalf("layer counts differ: %d vs %d", len(p1.Layers), len(p2.Layers))
	}
	for i := range p1.Layers {
		a1, a2 := layerArea(p1.Layers[i]), layerArea(p2.Layers[i])
		if math.Abs(a1-a2) > 1e-6 {
			t.Errorf("layer %d areas differ: %g vs %g", i, a1, a2)
		}
	}
}

func TestSphereScenario(t *testing.T) {
	p := runSrc(t, "sphere(r=10, $fn=8);", func(o *Options) {
		o.ZStep = 5
		o.ZMin, o.HaveZMin = -10, true
		o.ZMax, o.HaveZMax = 10, true
	})
	if len(p.Layers) != 5 {
		t.Fatalf("layer count = %d, want 5", len(p.Layers))
	}
	// poles are empty, other layers are 8-gons of radius sqrt(100-z^2)
	if !p.Layers[0].Poly.IsEmpty() || !p.Layers[4].Poly.IsEmpty() {
		t.Errorf("pole layers not empty")
	}
	for _, i := range []int{1, 2, 3} {
		l := p.Layers[i]
		if len(l.Poly.Paths) != 1 {
			t.Fatalf("layer %d paths = %d, want 1", i, len(l.Poly.Paths))
		}
		want := math.Sqrt(100 - l.Z*l.Z)
		for _, idx := range l.Poly.Paths[0].PointIdx {
			pt := l.Poly.Points[idx].P
			if r := math.Hypot(pt.X, pt.Y); math.Abs(r-want) > 0.01 {
				t.Errorf("layer %d vertex radius = %g, want %g", i, r, want)
			}
		}
	}
}

func TestEmptyCubeAborts(t *testing.T) {
	opt := Default()
	opt.NoDiff = true
	opt.Empty = csg3.PolicyError
	p := New(opt)
	err := p.Run("test.scad", []byte("cube(0);"))
	if err == nil {
		t.Fatal("run succeeded, want GeomError")
	}
	if _, ok := err.(*csg3.GeomError); !ok {
		t.Fatalf("error type = %T, want *csg3.GeomError", err)
	}
	if p.Stage() != StageScadded {
		t.Errorf("stage = %v, want failure during csg3 build", p.Stage())
	}
}

func TestLexErrorStopsPipeline(t *testing.T) {
	p := New(Default())
	err := p.Run("test.scad", []byte("9.9foo"))
	if err == nil {
		t.Fatal("run succeeded, want lex error")
	}
	se, ok := err.(*syn.Error)
	if !ok || se.Kind != syn.KindLex {
		t.Fatalf("error = %#v, want lex error", err)
	}
	if p.Scad != nil {
		t.Errorf("SCAD stage ran after a lex error")
	}
	msg := p.FormatError(err)
	if !strings.Contains(msg, "Error:") || !strings.Contains(msg, "^") {
		t.Errorf("formatted error = %q, want caret excerpt", msg)
	}
}

func TestDumpStageStopsEarly(t *testing.T) {
	p := runSrc(t, "cube(10);", func(o *Options) { o.Until = StageParsed })
	if p.Stage() != StageParsed {
		t.Errorf("stage = %v, want parsed", p.Stage())
	}
	if p.Scad != nil || p.Csg3 != nil || p.Layers != nil {
		t.Errorf("later stages ran despite early exit")
	}
}

func TestTriangulationAreaLaw(t *testing.T) {
	p := runSrc(t, "difference() { cube(20); cube(10); }", func(o *Options) { o.ZStep = 5 })
	for i, l := range p.Layers {
		var triArea float64
		for _, tri := range l.Poly.Tris {
			a := l.Poly.Points[tri[0]].P
			b := l.Poly.Points[tri[1]].P
			c := l.Poly.Points[tri[2]].P
			triArea += math.Abs((b.X-a.X)*(c.Y-a.Y)-(b.Y-a.Y)*(c.X-a.X)) / 2
		}
		if polyArea := l.Poly.Area(); math.Abs(triArea-polyArea) > 1e-6 {
			t.Errorf("layer %d triangle area %g != polygon area %g", i, triArea, polyArea)
		}
	}
}

func TestWorkersDeterministic(t *testing.T) {
	src := "difference() { sphere(r=10, $fn=16); cylinder(h=30, r=4, $fn=8); }"
	p1 := runSrc(t, src, func(o *Options) { o.ZStep = 2; o.Workers = 1 })
	p4 := runSrc(t, src, func(o *Options) { o.ZStep = 2; o.Workers = 4 })
	if len(p1.Layers) != len(p4.Layers) {
		t.Fatalf("layer counts differ: %d vs %d", len(p1.Layers), len(p4.Layers))
	}
	for i := range p1.Layers {
		a, b := p1.Layers[i].Poly, p4.Layers[i].Poly
		if len(a.Points) != len(b.Points) || len(a.Paths) != len(b.Paths) {
			t.Fatalf("layer %d differs between 1 and 4 workers", i)
		}
		for j := range a.Points {
			if a.Points[j].P != b.Points[j].P {
				t.Errorf("layer %d point %d differs: %v vs %v", i, j,
					a.Points[j].P, b.Points[j].P)
			}
		}
	}
}

func TestDiffPass(t *testing.T) {
	// a straight cylinder's layers are identical, so layer 1's xor against
	// layer 0 is empty
	p := runSrc(t, "cylinder(h=10, r=10, center=false, $fn=8);", func(o *Options) {
		o.NoDiff = false
		o.ZStep = 5
		o.ZMin, o.HaveZMin = 2.5, true
	})
	if p.Stage() != StageDiffed {
		t.Fatalf("stage = %v, want diffed", p.Stage())
	}
	if len(p.Layers) != 2 {
		t.Fatalf("layer count = %d, want 2", len(p.Layers))
	}
	if p.Layers[0].Diff != nil {
		t.Errorf("layer 0 has a diff set, want unchanged")
	}
	if p.Layers[1].Diff == nil {
		t.Fatalf("layer 1 diff missing")
	}
	// identical layers: the diff must vanish
	if !p.Layers[1].Diff.IsEmpty() {
		t.Errorf("diff of identical layers = %d paths, want empty", len(p.Layers[1].Diff.Paths))
	}
}

func TestGapResolution(t *testing.T) {
	o := Default()
	if g := o.Gap(true); g != 0.01 {
		t.Errorf("stl gap = %g, want 0.01 for layer_gap=-1", g)
	}
	if g := o.Gap(false); g != 0 {
		t.Errorf("scad gap = %g, want 0 for layer_gap=-1", g)
	}
	o.LayerGap = -7
	if g := o.Gap(true); g != 0 {
		t.Errorf("gap = %g, want 0 for other negative values", g)
	}
	o.LayerGap = 0.05
	if g := o.Gap(false); g != 0.05 {
		t.Errorf("gap = %g, want configured 0.05", g)
	}
}
