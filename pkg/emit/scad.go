// Package emit renders pipeline results: SCAD dumps of the intermediate
// trees, and the STL, PostScript and WebGL/JS layer outputs.
package emit

import (
	"fmt"
	"io"

	"github.com/chazu/laminate/pkg/csg2"
	"github.com/chazu/laminate/pkg/pipeline"
	"github.com/chazu/laminate/pkg/syn"
)

// Csg2Scad dumps the evaluated layer stack as SCAD source: one extruded
// polygon group per layer.
func Csg2Scad(w io.Writer, p *pipeline.Pipeline) error {
	gap := p.Opt.Gap(false)
	thick := p.Range.Step - gap
	for i, layer := range p.Layers {
		poly := layerPoly(layer)
		if _, err := fmt.Fprintf(w, "// layer %d: z = %s\n", i, syn.FormatFloat(layer.Z)); err != nil {
			return err
		}
		if poly.IsEmpty() {
			continue
		}
		if _, err := fmt.Fprintf(w, "translate([0,0,%s]) linear_extrude(height=%s) {\n",
			syn.FormatFloat(layer.Z), syn.FormatFloat(thick)); err != nil {
			return err
		}
		if err := writePolygon(w, poly); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "}\n"); err != nil {
			return err
		}
	}
	return nil
}

// layerPoly picks the polygon set a writer should use: the diff set when
// the diff pass replaced the layer, the full set otherwise.
func layerPoly(l *csg2.Layer) *csg2.Poly {
	if l.Diff != nil {
		return l.Diff
	}
	return l.Poly
}

func writePolygon(w io.Writer, p *csg2.Poly) error {
	if _, err := fmt.Fprintf(w, "    polygon(points=["); err != nil {
		return err
	}
	for i, pt := range p.Points {
		sep := ","
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s[%s,%s]", sep,
			syn.FormatFloat(pt.P.X), syn.FormatFloat(pt.P.Y)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "], paths=["); err != nil {
		return err
	}
	for i, path := range p.Paths {
		sep := ","
		if i == 0 {
			sep = ""
		}
		if _, err := fmt.Fprintf(w, "%s[", sep); err != nil {
			return err
		}
		for j, idx := range path.PointIdx {
			sep := ","
			if j == 0 {
				sep = ""
			}
			if _, err := fmt.Fprintf(w, "%s%d", sep, idx); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "]"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "]);\n")
	return err
}
