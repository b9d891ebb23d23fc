package emit

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/laminate/pkg/pipeline"
)

// mm converts millimetres to PostScript points.
const mm = 72.0 / 25.4

// PS writes the layer stack as a PostScript document, one page per
// layer. Triangles are drawn first in grey, then the paths on top in
// black, so the boolean result can be inspected against its
// triangulation.
func PS(w io.Writer, p *pipeline.Pipeline) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%%!PS-Adobe-3.0\n")
	fmt.Fprintf(bw, "%%%%Pages: %d\n", len(p.Layers))
	fmt.Fprintf(bw, "%%%%EndComments\n")

	for i, layer := range p.Layers {
		poly := layerPoly(layer)
		fmt.Fprintf(bw, "%%%%Page: %d %d\n", i+1, i+1)
		fmt.Fprintf(bw, "gsave %g %g translate %g %g scale\n",
			297.0, 420.0, mm, mm) // centre of A4, mm units
		fmt.Fprintf(bw, "0.4 %g div setlinewidth\n", mm)

		fmt.Fprintf(bw, "0.6 setgray\n")
		for _, t := range poly.Tris {
			a := poly.Points[t[0]].P
			b := poly.Points[t[1]].P
			c := poly.Points[t[2]].P
			fmt.Fprintf(bw, "newpath %g %g moveto %g %g lineto %g %g lineto closepath stroke\n",
				a.X, a.Y, b.X, b.Y, c.X, c.Y)
		}

		fmt.Fprintf(bw, "0 setgray\n")
		for _, path := range poly.Paths {
			for j, idx := range path.PointIdx {
				pt := poly.Points[idx].P
				if j == 0 {
					fmt.Fprintf(bw, "newpath %g %g moveto\n", pt.X, pt.Y)
				} else {
					fmt.Fprintf(bw, "%g %g lineto\n", pt.X, pt.Y)
				}
			}
			fmt.Fprintf(bw, "closepath stroke\n")
		}
		fmt.Fprintf(bw, "grestore showpage\n")
	}
	fmt.Fprintf(bw, "%%%%EOF\n")
	return bw.Flush()
}
