package scad

import (
	"fmt"
	"io"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/syn"
)

// Print writes the typed tree back out as SCAD source. Lowering the
// printed form again yields the same tree.
func Print(w io.Writer, t *Tree) error {
	p := &printer{w: w}
	for _, n := range t.Top {
		p.node(n, 0)
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

func f(v float64) string { return syn.FormatFloat(v) }

func vec3(v v3.Vec) string {
	return fmt.Sprintf("[%s,%s,%s]", f(v.X), f(v.Y), f(v.Z))
}

func (p *printer) node(n *Node, depth int) {
	ind := strings.Repeat("    ", depth)
	mods := ""
	if n.Mod&syn.ModRoot != 0 {
		mods += "!"
	}
	if n.Mod&syn.ModBackground != 0 {
		mods += "%"
	}
	if n.Mod&syn.ModHighlight != 0 {
		mods += "#"
	}
	p.printf("%s%s%s(", ind, mods, n.Kind)
	p.data(n)
	p.printf(")")
	if len(n.Children) == 0 {
		if n.Kind.IsCombinator() || n.Kind.IsTransform() {
			p.printf(" {}\n")
		} else {
			p.printf(";\n")
		}
		return
	}
	p.printf(" {\n")
	for _, c := range n.Children {
		p.node(c, depth+1)
	}
	p.printf("%s}\n", ind)
}

func (p *printer) data(n *Node) {
	switch d := n.Data.(type) {
	case CubeData:
		p.printf("size=%s,center=%v", vec3(d.Size), d.Center)
	case SphereData:
		p.printf("r=%s", f(d.R))
		p.detail(d.Detail)
	case CylinderData:
		p.printf("h=%s,r1=%s,r2=%s,center=%v", f(d.H), f(d.R1), f(d.R2), d.Center)
		p.detail(d.Detail)
	case PolyhedronData:
		p.printf("points=[")
		for i, pt := range d.Points {
			if i > 0 {
				p.printf(",")
			}
			p.printf("%s", vec3(pt.V))
		}
		p.printf("],faces=[")
		for i, face := range d.Faces {
			if i > 0 {
				p.printf(",")
			}
			p.idxList(face)
		}
		p.printf("]")
	case SquareData:
		p.printf("size=[%s,%s],center=%v", f(d.Size.X), f(d.Size.Y), d.Center)
	case CircleData:
		p.printf("r=%s", f(d.R))
		p.detail(d.Detail)
	case PolygonData:
		p.printf("points=[")
		for i, pt := range d.Points {
			if i > 0 {
				p.printf(",")
			}
			p.printf("[%s,%s]", f(pt.V.X), f(pt.V.Y))
		}
		p.printf("]")
		if d.Paths != nil {
			p.printf(",paths=[")
			for i, path := range d.Paths {
				if i > 0 {
					p.printf(",")
				}
				p.idxList(path)
			}
			p.printf("]")
		}
	case TranslateData:
		p.printf("v=%s", vec3(d.V))
	case RotateData:
		if d.Axis != nil {
			p.printf("a=%s,v=%s", f(d.A.Z), vec3(*d.Axis))
		} else {
			p.printf("a=%s", vec3(d.A))
		}
	case ScaleData:
		p.printf("v=%s", vec3(d.V))
	case MirrorData:
		p.printf("v=%s", vec3(d.V))
	case MultmatrixData:
		p.printf("m=[")
		for r := 0; r < 4; r++ {
			if r > 0 {
				p.printf(",")
			}
			p.printf("[%s,%s,%s,%s]",
				f(d.M.M[r][0]), f(d.M.M[r][1]), f(d.M.M[r][2]), f(d.M.M[r][3]))
		}
		p.printf("]")
	case LinearExtrudeData:
		p.printf("height=%s,center=%v", f(d.Height), d.Center)
		p.detail(d.Detail)
	}
}

func (p *printer) detail(d Detail) {
	p.printf(",$fn=%d,$fa=%s,$fs=%s", d.Fn, f(d.Fa), f(d.Fs))
}

func (p *printer) idxList(idx []int) {
	p.printf("[")
	for i, x := range idx {
		if i > 0 {
			p.printf(",")
		}
		p.printf("%d", x)
	}
	p.printf("]")
}
