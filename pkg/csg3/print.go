package csg3

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/laminate/pkg/syn"
)

// Print dumps the solid tree in SCAD-like syntax. Analytic primitives
// print with their frozen matrix so the dump stays faithful to what the
// slicer will see.
func Print(w io.Writer, t *Tree) error {
	p := &printer{w: w}
	if t.Root != nil {
		p.node(t.Root, 0)
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) node(n *Node, depth int) {
	ind := strings.Repeat("    ", depth)
	switch n.Kind {
	case KindAdd, KindSub, KindCut:
		p.printf("%s%s() {\n", ind, combName(n.Kind))
		for _, c := range n.Children {
			p.node(c, depth+1)
		}
		p.printf("%s}\n", ind)

	case KindSphere:
		d := n.Data.(SphereData)
		p.printf("%smultmatrix(m=%s) sphere(r=%s, $fn=%d);\n",
			ind, d.M.String(), syn.FormatFloat(d.R), d.Fn)

	case KindCyl:
		d := n.Data.(CylData)
		p.printf("%smultmatrix(m=%s) cylinder(h=%s, r1=%s, r2=%s, center=%t, $fn=%d);\n",
			ind, d.M.String(), syn.FormatFloat(d.Z1-d.Z0),
			syn.FormatFloat(d.R1), syn.FormatFloat(d.R2), d.Z0 != 0, d.Fn)

	case KindExtrude:
		d := n.Data.(ExtrudeData)
		p.printf("%smultmatrix(m=%s) linear_extrude(height=%s, center=%t) polygon(points=[",
			ind, d.M.String(), syn.FormatFloat(d.Z1-d.Z0), d.Z0 != 0)
		for i, pt := range d.Points {
			if i > 0 {
				p.printf(",")
			}
			p.printf("[%s,%s]", syn.FormatFloat(pt.V.X), syn.FormatFloat(pt.V.Y))
		}
		p.printf("], paths=%s);\n", idxListsString(d.Paths))

	case KindPoly:
		d := n.Data.(PolyData)
		p.printf("%spolyhedron(points=[", ind)
		for i, pt := range d.Points {
			if i > 0 {
				p.printf(",")
			}
			p.printf("[%s,%s,%s]", syn.FormatFloat(pt.V.X),
				syn.FormatFloat(pt.V.Y), syn.FormatFloat(pt.V.Z))
		}
		p.printf("], faces=%s);\n", idxListsString(d.Faces))
	}
}

func combName(k Kind) string {
	switch k {
	case KindSub:
		return "difference"
	case KindCut:
		return "intersection"
	default:
		return "union"
	}
}

func idxListsString(lists [][]int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, l := range lists {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, x := range l {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", x)
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
