package pipeline

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/chazu/laminate/pkg/csg2"
	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// Pipeline carries one file through the refinement passes. Each pass
// owns its IR; earlier IRs stay alive so later diagnostics can resolve
// source locations.
type Pipeline struct {
	Opt *Options
	Tol *geom.Tol

	Syn    *syn.Tree
	Scad   *scad.Tree
	Csg3   *csg3.Tree
	Range  geom.Range
	Layers []*csg2.Layer

	// Info receives verbose progress output; nil silences it.
	Info io.Writer

	stage Stage
}

// New builds a pipeline. The tolerance set is frozen here, before any
// geometric work; it is never written afterwards.
func New(opt *Options) *Pipeline {
	return &Pipeline{Opt: opt, Tol: opt.Tol()}
}

// Stage returns the last completed stage.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Run carries the file through every stage up to Opt.Until. Any stage
// error is fatal and terminates the run; the partially built IRs stay
// readable for dump and diagnostics purposes.
func (p *Pipeline) Run(name string, content []byte) error {
	var err error

	p.Syn, err = syn.Parse(name, content)
	if err != nil {
		return err
	}
	p.stage = StageParsed
	if p.Opt.Until == StageParsed {
		return nil
	}

	p.Scad, err = scad.FromSyn(p.Syn)
	if err != nil {
		return err
	}
	p.stage = StageScadded
	if p.Opt.Until == StageScadded {
		return nil
	}

	p.Csg3, err = csg3.FromScad(p.Scad, p.Opt.Csg3Opt(p.Tol))
	if err != nil {
		return err
	}
	p.warnGeom()
	p.stage = StageCsg3Built
	if p.Opt.Until == StageCsg3Built {
		return nil
	}

	p.planRange()
	p.stage = StageSliced
	if err := p.processLayers(); err != nil {
		return err
	}
	p.stage = StageTriangulated
	if p.Opt.NoTri {
		p.stage = StageEvaluated
	}
	if p.Opt.Until <= p.stage {
		return nil
	}

	if !p.Opt.NoDiff {
		if err := p.processDiff(); err != nil {
			return err
		}
		p.stage = StageDiffed
	}
	return nil
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if p.Info != nil && p.Opt.Verbose >= 1 {
		fmt.Fprintf(p.Info, format, args...)
	}
}

// warnGeom renders the non-fatal geometry diagnostics collected by the
// CSG3 builder.
func (p *Pipeline) warnGeom() {
	if p.Info == nil {
		return
	}
	for _, w := range p.Csg3.Warnings {
		loc, loc2 := w.Location()
		pre, post := p.Syn.Src.FormatLoc(loc, loc2)
		fmt.Fprintf(p.Info, "%sWarning: %s\n%s", pre, w.Msg, post)
	}
}

// planRange picks the cutting planes: user overrides win; otherwise the
// layers sample at layer centres of the bounding box that ignores
// subtracted geometry.
func (p *Pipeline) planRange() {
	bb := csg3.TreeBB(p.Csg3, false)
	zMin, zMax := 0.0, 0.0
	if !bb.IsEmpty() {
		zMin = bb.Min.Z + p.Opt.ZStep/2
		zMax = bb.Max.Z
	}
	if p.Opt.HaveZMin {
		zMin = p.Opt.ZMin
	}
	if p.Opt.HaveZMax {
		zMax = p.Opt.ZMax
	}
	p.Range = geom.NewRange(zMin, zMax, p.Opt.ZStep)
	p.infof("Info: Z: min=%g, step=%g, layer_cnt=%d, max=%g\n",
		p.Range.Min, p.Range.Step, p.Range.Cnt,
		p.Range.Z(p.Range.Cnt-1))
}

// errLatch keeps the first error reported by any worker. Workers check
// it between layers and stop cooperatively.
type errLatch struct {
	mu  sync.Mutex
	err error
}

func (l *errLatch) set(err error) {
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

func (l *errLatch) get() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (p *Pipeline) workers() int {
	w := p.Opt.Workers
	if w < 1 {
		w = 1
	}
	return w
}

// processLayers runs the data-parallel region: every layer is sliced,
// Boolean-evaluated and triangulated independently. An atomic index
// dispenser hands out layers; each worker owns a scratch region that is
// reset between layers, and writes into its layer's pre-sized slot.
func (p *Pipeline) processLayers() error {
	cnt := p.Range.Cnt
	p.Layers = make([]*csg2.Layer, cnt)
	opt2 := p.Opt.Csg2Opt(p.Tol)

	var next atomic.Int64
	var latch errLatch
	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := csg2.NewScratch()
			for {
				i := int(next.Add(1)) - 1
				if i >= cnt || latch.get() != nil {
					return
				}
				scratch.Reset()
				if err := p.oneLayer(i, opt2, scratch); err != nil {
					latch.set(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	return latch.get()
}

func (p *Pipeline) oneLayer(i int, opt2 *csg2.Opt, s *csg2.Scratch) error {
	z := p.Range.Z(i)
	var poly *csg2.Poly
	var err error
	if p.Opt.NoCSG {
		poly, err = csg2.ConcatLayer(p.Csg3.Root, z, opt2)
	} else {
		poly, err = csg2.EvalLayer(p.Csg3.Root, z, opt2, s)
	}
	if err != nil {
		return err
	}
	if !p.Opt.NoTri {
		if err := csg2.Triangulate(poly, p.Tol); err != nil {
			return err
		}
	}
	p.Layers[i] = &csg2.Layer{Z: z, Poly: poly}
	return nil
}

// processDiff is the second parallel pass: layer i gets the symmetric
// difference against layer i-1. Each diff goes into its own layer's Diff
// field and reads only Poly, so the order in which workers take layers
// does not matter. Layer 0 keeps its polygons.
func (p *Pipeline) processDiff() error {
	cnt := p.Range.Cnt
	opt2 := p.Opt.Csg2Opt(p.Tol)

	var next atomic.Int64
	var latch errLatch
	var wg sync.WaitGroup
	for w := 0; w < p.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := csg2.NewScratch()
			for {
				i := int(next.Add(1)) // indices 1..cnt-1
				if i >= cnt || latch.get() != nil {
					return
				}
				scratch.Reset()
				d, err := csg2.Combine(csg2.OpXor,
					[]*csg2.Poly{p.Layers[i].Poly, p.Layers[i-1].Poly}, opt2, scratch)
				if err == nil && !p.Opt.NoTri {
					err = csg2.Triangulate(d, p.Tol)
				}
				if err != nil {
					latch.set(err)
					return
				}
				p.Layers[i].Diff = d
			}
		}()
	}
	wg.Wait()
	return latch.get()
}

// FormatError renders a pipeline error the way the CLI reports it: the
// source excerpt, the message, and the secondary excerpt.
func (p *Pipeline) FormatError(err error) string {
	msg := err.Error()
	var pre, post string
	if le, ok := err.(syn.Located); ok && p.Syn != nil {
		loc, loc2 := le.Location()
		pre, post = p.Syn.Src.FormatLoc(loc, loc2)
	}
	return fmt.Sprintf("%sError: %s\n%s", pre, msg, post)
}
