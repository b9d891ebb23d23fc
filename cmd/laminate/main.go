// Command laminate reads a CSG model in a subset of the OpenSCAD
// language, slices it into horizontal layers, evaluates the CSG boolean
// operations per layer in 2D, and writes the resulting polygon stack as
// STL, SCAD, PostScript or WebGL/JS output.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/emit"
	"github.com/chazu/laminate/pkg/pipeline"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

type dumpKind int

const (
	dumpDefault dumpKind = iota
	dumpSyn
	dumpScad
	dumpCsg3
	dumpCsg2
	dumpSTL
	dumpPS
	dumpJS
)

type cliFlags struct {
	opt     *pipeline.Options
	outFile string
	config  string

	dumpSyn, dumpScad, dumpCsg3, dumpCsg2 bool
	dumpSTL, dumpPS, dumpJS               bool

	empty, collapse, outside2D, outside3D string
}

func main() {
	fl := &cliFlags{opt: pipeline.Default()}
	root := &cobra.Command{
		Use:   "laminate [flags] INFILE",
		Short: "slice a CSG model into 2D boolean layers",
		Long: "laminate reads 3D CSG models from (simple syntax) SCAD files,\n" +
			"slices them into layers of 2D CSG models, applies the 2D boolean\n" +
			"operations to the resulting polygon stack instead of the 3D\n" +
			"polyhedra, and writes the result per slice.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, fl, args[0])
		},
	}

	f := root.Flags()
	f.StringVarP(&fl.outFile, "output", "o", "", "output file (format chosen by suffix)")
	f.StringVar(&fl.config, "config", "", "YAML config file")

	f.Float64Var(&fl.opt.ZMin, "z-min", 0, "lowest cutting plane")
	f.Float64Var(&fl.opt.ZMax, "z-max", -1, "highest cutting plane")
	f.Float64Var(&fl.opt.ZStep, "z-step", fl.opt.ZStep, "layer spacing")
	f.IntVar(&fl.opt.MaxFn, "max-fn", fl.opt.MaxFn, "cap on round primitive fragments")
	f.Float64Var(&fl.opt.LayerGap, "layer-gap", fl.opt.LayerGap, "gap between extruded layers (-1 = format default)")
	f.IntVar(&fl.opt.MaxSimultaneous, "max-simultaneous", fl.opt.MaxSimultaneous, "boolean operand cap per stage")
	f.BoolVar(&fl.opt.SkipEmpty, "skip-empty", fl.opt.SkipEmpty, "skip empty operand polygons")
	f.BoolVar(&fl.opt.DropCollinear, "drop-collinear", fl.opt.DropCollinear, "collapse collinear output edges")
	f.StringVar(&fl.empty, "empty", "ignore", "empty primitive handling (error|warn|ignore)")
	f.StringVar(&fl.collapse, "collapse", "ignore", "collapsed transform handling (error|warn|ignore)")
	f.StringVar(&fl.outside2D, "outside-2d", "error", "2D object in 3D context handling (error|warn|ignore)")
	f.StringVar(&fl.outside3D, "outside-3d", "error", "3D object in 2D context handling (error|warn|ignore)")
	f.Float64Var(&fl.opt.PtEps, "pt-epsilon", fl.opt.PtEps, "point rasterisation grid")
	f.Float64Var(&fl.opt.EqEps, "eq-epsilon", fl.opt.EqEps, "general equality tolerance")
	f.Float64Var(&fl.opt.SqrEps, "sqr-epsilon", fl.opt.SqrEps, "squared quantity tolerance")
	f.Uint32Var(&fl.opt.ColorRand, "color-rand", 0, "random color seed for the JS output")
	f.IntVarP(&fl.opt.Workers, "workers", "j", fl.opt.Workers, "layer worker threads")
	f.IntVarP(&fl.opt.Verbose, "verbose", "v", fl.opt.Verbose, "verbosity level")
	f.BoolVar(&fl.opt.NoCSG, "no-csg", false, "skip the per-layer boolean evaluation")
	f.BoolVar(&fl.opt.NoTri, "no-tri", false, "skip the triangulation")
	f.BoolVar(&fl.opt.NoDiff, "no-diff", false, "skip the layer difference pass")

	f.BoolVar(&fl.dumpSyn, "dump-syn", false, "dump the syntax tree and stop")
	f.BoolVar(&fl.dumpScad, "dump-scad", false, "dump the typed SCAD tree and stop")
	f.BoolVar(&fl.dumpCsg3, "dump-csg3", false, "dump the 3D solid tree and stop")
	f.BoolVar(&fl.dumpCsg2, "dump-csg2", false, "dump the evaluated layers as SCAD")
	f.BoolVar(&fl.dumpSTL, "dump-stl", false, "write STL output")
	f.BoolVar(&fl.dumpPS, "dump-ps", false, "write PostScript output")
	f.BoolVar(&fl.dumpJS, "dump-js", false, "write WebGL/JS output")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// pickDump decides what to produce, from explicit flags or the output
// file suffix.
func pickDump(fl *cliFlags) (dumpKind, error) {
	switch {
	case fl.dumpSyn:
		return dumpSyn, nil
	case fl.dumpScad:
		return dumpScad, nil
	case fl.dumpCsg3:
		return dumpCsg3, nil
	case fl.dumpCsg2:
		return dumpCsg2, nil
	case fl.dumpSTL:
		return dumpSTL, nil
	case fl.dumpPS:
		return dumpPS, nil
	case fl.dumpJS:
		return dumpJS, nil
	}
	if fl.outFile == "" {
		return dumpDefault, nil
	}
	switch {
	case strings.HasSuffix(fl.outFile, ".stl"):
		return dumpSTL, nil
	case strings.HasSuffix(fl.outFile, ".js"):
		return dumpJS, nil
	case strings.HasSuffix(fl.outFile, ".scad"), strings.HasSuffix(fl.outFile, ".csg"):
		return dumpCsg2, nil
	case strings.HasSuffix(fl.outFile, ".ps"):
		return dumpPS, nil
	}
	return 0, fmt.Errorf("unrecognised file ending: '%s', use --dump-...", fl.outFile)
}

func run(cmd *cobra.Command, fl *cliFlags, inFile string) error {
	opt := fl.opt
	if fl.config != "" {
		if err := opt.LoadFile(fl.config); err != nil {
			return err
		}
	}
	opt.HaveZMin = opt.HaveZMin || cmd.Flags().Changed("z-min")
	opt.HaveZMax = opt.HaveZMax || cmd.Flags().Changed("z-max")

	for _, pp := range []struct {
		s string
		p *csg3.Policy
		k string
	}{
		{fl.empty, &opt.Empty, "empty"},
		{fl.collapse, &opt.Collapse, "collapse"},
		{fl.outside2D, &opt.Outside2D, "outside-2d"},
		{fl.outside3D, &opt.Outside3D, "outside-3d"},
	} {
		pol, ok := csg3.ParsePolicy(pp.s)
		if !ok {
			return fmt.Errorf("invalid %s policy: '%s', expected error, warn or ignore", pp.k, pp.s)
		}
		*pp.p = pol
	}

	dump, err := pickDump(fl)
	if err != nil {
		return err
	}
	if dump == dumpDefault {
		dump = dumpSTL
	}
	switch dump {
	case dumpSyn:
		opt.Until = pipeline.StageParsed
	case dumpScad:
		opt.Until = pipeline.StageScadded
	case dumpCsg3:
		opt.Until = pipeline.StageCsg3Built
	default:
		opt.Until = pipeline.StageEmitted
	}
	if dump != dumpJS {
		// only the WebGL output uses layer differences
		opt.NoDiff = true
	}

	content, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("unable to open '%s' for reading: %w", inFile, err)
	}

	out := os.Stdout
	if fl.outFile != "" {
		out, err = os.Create(fl.outFile)
		if err != nil {
			return fmt.Errorf("unable to open '%s' for writing: %w", fl.outFile, err)
		}
		defer out.Close()
	}

	p := pipeline.New(opt)
	p.Info = os.Stderr
	if err := p.Run(inFile, content); err != nil {
		fmt.Fprint(os.Stderr, p.FormatError(err))
		os.Exit(1)
	}

	switch dump {
	case dumpSyn:
		return syn.Print(out, p.Syn)
	case dumpScad:
		return scad.Print(out, p.Scad)
	case dumpCsg3:
		return csg3.Print(out, p.Csg3)
	case dumpCsg2:
		return emit.Csg2Scad(out, p)
	case dumpPS:
		return emit.PS(out, p)
	case dumpJS:
		return emit.JS(out, p)
	default:
		return emit.STL(out, p)
	}
}
