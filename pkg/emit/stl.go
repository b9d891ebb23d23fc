package emit

import (
	"bufio"
	"fmt"
	"io"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/laminate/pkg/csg2"
	"github.com/chazu/laminate/pkg/pipeline"
)

// STL writes the layer stack as an ASCII STL solid: each layer's
// triangulation is extruded trivially from its cutting plane to just
// below the next one, with the layer gap removed so slicing software
// sees separate shells.
func STL(w io.Writer, p *pipeline.Pipeline) error {
	bw := bufio.NewWriter(w)
	thick := p.Range.Step - p.Opt.Gap(true)

	if _, err := fmt.Fprintf(bw, "solid laminate\n"); err != nil {
		return err
	}
	for _, layer := range p.Layers {
		if layer.Poly.IsEmpty() {
			continue
		}
		writeLayerSTL(bw, layer.Poly, layer.Z, layer.Z+thick)
	}
	if _, err := fmt.Fprintf(bw, "endsolid laminate\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeLayerSTL(w *bufio.Writer, poly *csg2.Poly, z0, z1 float64) {
	// bottom and top faces from the triangulation
	for _, t := range poly.Tris {
		a := poly.Points[t[0]].P
		b := poly.Points[t[1]].P
		c := poly.Points[t[2]].P
		facet(w, 0, 0, -1, a, c, b, z0, z0, z0)
		facet(w, 0, 0, 1, a, b, c, z1, z1, z1)
	}
	// side walls along every path edge
	for _, path := range poly.Paths {
		n := len(path.PointIdx)
		for i := 0; i < n; i++ {
			a := poly.Points[path.PointIdx[i]].P
			b := poly.Points[path.PointIdx[(i+1)%n]].P
			dx, dy := b.X-a.X, b.Y-a.Y
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			// outward normal of a counter-clockwise ring
			nx, ny := dy/l, -dx/l
			facet(w, nx, ny, 0, a, b, b, z0, z0, z1)
			facet(w, nx, ny, 0, a, b, a, z0, z1, z1)
		}
	}
}

func facet(w *bufio.Writer, nx, ny, nz float64, a, b, c v2.Vec, za, zb, zc float64) {
	fmt.Fprintf(w, "  facet normal %g %g %g\n", nx, ny, nz)
	fmt.Fprintf(w, "    outer loop\n")
	fmt.Fprintf(w, "      vertex %g %g %g\n", a.X, a.Y, za)
	fmt.Fprintf(w, "      vertex %g %g %g\n", b.X, b.Y, zb)
	fmt.Fprintf(w, "      vertex %g %g %g\n", c.X, c.Y, zc)
	fmt.Fprintf(w, "    endloop\n")
	fmt.Fprintf(w, "  endfacet\n")
}
