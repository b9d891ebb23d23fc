package emit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/laminate/pkg/pipeline"
	"github.com/chazu/laminate/pkg/syn"
)

func runSrc(t *testing.T, src string, tweak func(*pipeline.Options)) *pipeline.Pipeline {
	t.Helper()
	opt := pipeline.Default()
	opt.NoDiff = true
	opt.ZStep = 5
	if tweak != nil {
		tweak(opt)
	}
	p := pipeline.New(opt)
	if err := p.Run("test.scad", []byte(src)); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return p
}

func TestSTLOutput(t *testing.T) {
	p := runSrc(t, "cube(10);", nil)
	var buf bytes.Buffer
	if err := STL(&buf, p); err != nil {
		t.Fatalf("STL failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "solid laminate\n") {
		t.Errorf("missing solid header")
	}
	if !strings.HasSuffix(out, "endsolid laminate\n") {
		t.Errorf("missing endsolid trailer")
	}
	nFacets := strings.Count(out, "facet normal")
	if strings.Count(out, "endfacet") != nFacets {
		t.Errorf("unbalanced facet markers")
	}
	// 2 layers, each: 2 top + 2 bottom + 4 edges * 2 walls
	if nFacets != 2*(2+2+8) {
		t.Errorf("facets = %d, want 24", nFacets)
	}
	if strings.Count(out, "vertex") != 3*nFacets {
		t.Errorf("vertex count = %d, want 3 per facet", strings.Count(out, "vertex"))
	}
}

func TestSTLUsesGap(t *testing.T) {
	p := runSrc(t, "cube(10);", func(o *pipeline.Options) { o.LayerGap = 1 })
	var buf bytes.Buffer
	if err := STL(&buf, p); err != nil {
		t.Fatalf("STL failed: %v", err)
	}
	// layer at z=-2.5 with step 5 and gap 1 extrudes to z=1.5
	if !strings.Contains(buf.String(), "vertex -5 -5 1.5") {
		t.Errorf("layer top not at z + step - gap:\n%s", buf.String())
	}
}

func TestCsg2ScadReparses(t *testing.T) {
	p := runSrc(t, "difference() { cube(10); cube(4); }", nil)
	var buf bytes.Buffer
	if err := Csg2Scad(&buf, p); err != nil {
		t.Fatalf("Csg2Scad failed: %v", err)
	}
	if _, err := syn.Parse("dump.scad", buf.Bytes()); err != nil {
		t.Fatalf("dump does not reparse: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), "polygon(points=") {
		t.Errorf("dump has no polygons:\n%s", buf.String())
	}
}

func TestJSOutput(t *testing.T) {
	p := runSrc(t, "cube(10);", func(o *pipeline.Options) { o.ColorRand = 42 })
	var buf bytes.Buffer
	if err := JS(&buf, p); err != nil {
		t.Fatalf("JS failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "var layers = [") {
		t.Errorf("missing layers array")
	}
	if strings.Count(out, "{z:") != len(p.Layers) {
		t.Errorf("layer entries = %d, want %d", strings.Count(out, "{z:"), len(p.Layers))
	}
	if !strings.Contains(out, `color:"#`) {
		t.Errorf("missing seeded colors")
	}
}

func TestJSColorsDeterministic(t *testing.T) {
	p := runSrc(t, "cube(10);", func(o *pipeline.Options) { o.ColorRand = 7 })
	var b1, b2 bytes.Buffer
	if err := JS(&b1, p); err != nil {
		t.Fatalf("JS failed: %v", err)
	}
	if err := JS(&b2, p); err != nil {
		t.Fatalf("JS failed: %v", err)
	}
	if b1.String() != b2.String() {
		t.Errorf("JS output differs between runs with the same seed")
	}
}

func TestPSOutput(t *testing.T) {
	p := runSrc(t, "cube(10);", nil)
	var buf bytes.Buffer
	if err := PS(&buf, p); err != nil {
		t.Fatalf("PS failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%!PS-Adobe-3.0\n") {
		t.Errorf("missing PostScript header")
	}
	if got := strings.Count(out, "showpage"); got != len(p.Layers) {
		t.Errorf("pages = %d, want one per layer (%d)", got, len(p.Layers))
	}
}
