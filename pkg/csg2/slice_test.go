package csg2

import (
	"math"
	"testing"

	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// buildTree lowers source all the way to a CSG3 tree.
func buildTree(t *testing.T, src string) *csg3.Tree {
	t.Helper()
	st, err := syn.Parse("test.scad", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sc, err := scad.FromSyn(st)
	if err != nil {
		t.Fatalf("lower failed: %v", err)
	}
	tree, err := csg3.FromScad(sc, csg3.DefaultOpt())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return tree
}

func onlyPrim(t *testing.T, tree *csg3.Tree) *csg3.Node {
	t.Helper()
	var out []*csg3.Node
	var walk func(n *csg3.Node)
	walk = func(n *csg3.Node) {
		if n == nil {
			return
		}
		if n.Kind.IsPrimitive() {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tree.Root)
	if len(out) != 1 {
		t.Fatalf("primitive count = %d, want 1", len(out))
	}
	return out[0]
}

func sliceAt(t *testing.T, src string, z float64) *Poly {
	t.Helper()
	prim := onlyPrim(t, buildTree(t, src))
	p, err := Slice(prim, z, geom.DefaultTol())
	if err != nil {
		t.Fatalf("slice at %g failed: %v", z, err)
	}
	return p
}

func TestSliceCube(t *testing.T) {
	p := sliceAt(t, "cube(10);", 2.5)
	if len(p.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(p.Paths))
	}
	if a := math.Abs(p.PathArea(p.Paths[0])); math.Abs(a-100) > 1e-6 {
		t.Errorf("area = %g, want 100", a)
	}
	bb := p.BB()
	if math.Abs(bb.Min.X+5) > 1e-6 || math.Abs(bb.Max.X-5) > 1e-6 {
		t.Errorf("bb x = %g..%g, want -5..5", bb.Min.X, bb.Max.X)
	}
}

func TestSliceCubeOutside(t *testing.T) {
	if p := sliceAt(t, "cube(10);", 25); !p.IsEmpty() {
		t.Errorf("slice above the cube = %d paths, want empty", len(p.Paths))
	}
}

func TestSliceSphereRadii(t *testing.T) {
	tol := geom.DefaultTol()
	for _, z := range []float64{0, 2.5, 5, 7.5, 9.5} {
		p := sliceAt(t, "sphere(r=10, $fn=8);", z)
		if len(p.Paths) != 1 {
			t.Fatalf("z=%g: paths = %d, want 1", z, len(p.Paths))
		}
		if n := len(p.Paths[0].PointIdx); n != 8 {
			t.Errorf("z=%g: vertices = %d, want regular 8-gon", z, n)
		}
		want := math.Sqrt(100 - z*z)
		for _, idx := range p.Paths[0].PointIdx {
			pt := p.Points[idx].P
			r := math.Hypot(pt.X, pt.Y)
			if math.Abs(r-want) > tol.Eq {
				t.Errorf("z=%g: vertex radius = %g, want sqrt(100-z^2) = %g", z, r, want)
			}
		}
	}
}

func TestSliceSpherePolesEmpty(t *testing.T) {
	for _, z := range []float64{10, -10, 11} {
		if p := sliceAt(t, "sphere(r=10, $fn=8);", z); !p.IsEmpty() {
			t.Errorf("z=%g: slice = %d paths, want elided", z, len(p.Paths))
		}
	}
}

func TestSliceTranslatedSphere(t *testing.T) {
	p := sliceAt(t, "translate([3,4,5]) sphere(r=10, $fn=8);", 5)
	want := 10.0 // equator plane of the moved sphere
	for _, idx := range p.Paths[0].PointIdx {
		pt := p.Points[idx].P
		r := math.Hypot(pt.X-3, pt.Y-4)
		if math.Abs(r-want) > 1e-9 {
			t.Errorf("vertex radius about (3,4) = %g, want %g", r, want)
		}
	}
}

func TestSliceConeInterpolates(t *testing.T) {
	// radius shrinks linearly from 10 at z=0 to 0 at z=10
	src := "cylinder(h=10, r1=10, r2=0, center=false, $fn=16);"
	tol := geom.DefaultTol()
	for _, tc := range []struct{ z, want float64 }{{0, 10}, {2.5, 7.5}, {5, 5}, {7.5, 2.5}} {
		p := sliceAt(t, src, tc.z)
		if len(p.Paths) != 1 {
			t.Fatalf("z=%g: paths = %d, want 1", tc.z, len(p.Paths))
		}
		for _, idx := range p.Paths[0].PointIdx {
			pt := p.Points[idx].P
			if r := math.Hypot(pt.X, pt.Y); math.Abs(r-tc.want) > tol.Eq {
				t.Errorf("z=%g: radius = %g, want %g", tc.z, r, tc.want)
			}
		}
	}
	if p := sliceAt(t, src, 10.5); !p.IsEmpty() {
		t.Errorf("slice above the cone = %d paths, want empty", len(p.Paths))
	}
}

func TestSliceExtrudeProfile(t *testing.T) {
	src := "linear_extrude(height=4) square([2,6]);"
	p := sliceAt(t, src, 2)
	if len(p.Paths) != 1 {
		t.Fatalf("paths = %d, want 1", len(p.Paths))
	}
	if a := math.Abs(p.PathArea(p.Paths[0])); math.Abs(a-12) > 1e-9 {
		t.Errorf("area = %g, want 12", a)
	}
	if p := sliceAt(t, src, 5); !p.IsEmpty() {
		t.Errorf("slice above the extrusion = %d paths, want empty", len(p.Paths))
	}
}

func TestSliceVertexOnPlane(t *testing.T) {
	// an octahedron has its equator vertices exactly on the z=0 plane;
	// the biased plane must still produce a closed contour
	src := `polyhedron(
		points=[[5,0,0],[0,5,0],[-5,0,0],[0,-5,0],[0,0,5],[0,0,-5]],
		faces=[[0,1,4],[1,2,4],[2,3,4],[3,0,4],[1,0,5],[2,1,5],[3,2,5],[0,3,5]]);`
	p := sliceAt(t, src, 0)
	if len(p.Paths) != 1 {
		t.Fatalf("paths = %d, want 1 closed contour", len(p.Paths))
	}
	if a := math.Abs(p.PathArea(p.Paths[0])); math.Abs(a-50) > 0.5 {
		t.Errorf("area = %g, want about 50", a)
	}
}

func TestSliceCarriesLocations(t *testing.T) {
	src := "cube(10);"
	tree := buildTree(t, src)
	prim := onlyPrim(t, tree)
	p, err := Slice(prim, 0, geom.DefaultTol())
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	for _, pt := range p.Points {
		if pt.Loc == syn.NoLoc {
			t.Fatalf("slice vertex lost its source location")
		}
	}
}
