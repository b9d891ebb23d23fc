package emit

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chazu/laminate/pkg/pipeline"
	"github.com/chazu/laminate/pkg/syn"
)

// JS writes the layer stack as JavaScript arrays for the WebGL viewer.
// Layers above the first carry their symmetric difference against the
// layer below (when the diff pass ran), so the viewer can skip faces
// coincident between adjacent layers.
func JS(w io.Writer, p *pipeline.Pipeline) error {
	bw := bufio.NewWriter(w)
	gap := p.Opt.Gap(false)
	thick := p.Range.Step - gap
	rnd := colorSeq(p.Opt.ColorRand)

	fmt.Fprintf(bw, "var layer_thickness = %s;\n", syn.FormatFloat(thick))
	fmt.Fprintf(bw, "var layers = [\n")
	for i, layer := range p.Layers {
		poly := layerPoly(layer)
		fmt.Fprintf(bw, "{z:%s,points:[", syn.FormatFloat(layer.Z))
		for j, pt := range poly.Points {
			if j > 0 {
				bw.WriteByte(',')
			}
			fmt.Fprintf(bw, "[%s,%s]", syn.FormatFloat(pt.P.X), syn.FormatFloat(pt.P.Y))
		}
		fmt.Fprintf(bw, "],paths:[")
		for j, path := range poly.Paths {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteByte('[')
			for k, idx := range path.PointIdx {
				if k > 0 {
					bw.WriteByte(',')
				}
				fmt.Fprintf(bw, "%d", idx)
			}
			bw.WriteByte(']')
		}
		fmt.Fprintf(bw, "],tris:[")
		for j, t := range poly.Tris {
			if j > 0 {
				bw.WriteByte(',')
			}
			fmt.Fprintf(bw, "[%d,%d,%d]", t[0], t[1], t[2])
		}
		fmt.Fprintf(bw, "],color:%q}", rnd())
		if i+1 < len(p.Layers) {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "];\n")
	return bw.Flush()
}

// colorSeq yields a deterministic color sequence. A zero seed gives a
// fixed neutral color for every layer.
func colorSeq(seed uint32) func() string {
	if seed == 0 {
		return func() string { return "#cccccc" }
	}
	state := seed
	return func() string {
		// xorshift32
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		r := 0x40 + (state>>16)&0x7f
		g := 0x40 + (state>>8)&0x7f
		b := 0x40 + state&0x7f
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
}
