// Package pipeline orchestrates the slicing passes: parse, lower, build,
// slice, evaluate, triangulate and diff, with the per-layer work fanned
// out over a worker pool.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/laminate/pkg/csg2"
	"github.com/chazu/laminate/pkg/csg3"
	"github.com/chazu/laminate/pkg/geom"
)

// Stage identifies a pipeline state. Run stops after reaching the
// configured Until stage.
type Stage int

const (
	StageParsed Stage = iota
	StageScadded
	StageCsg3Built
	StageSliced
	StageEvaluated
	StageTriangulated
	StageDiffed
	StageEmitted
)

func (s Stage) String() string {
	switch s {
	case StageParsed:
		return "parsed"
	case StageScadded:
		return "scadded"
	case StageCsg3Built:
		return "csg3-built"
	case StageSliced:
		return "sliced"
	case StageEvaluated:
		return "evaluated"
	case StageTriangulated:
		return "triangulated"
	case StageDiffed:
		return "diffed"
	case StageEmitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Options is the configuration surface the core honours. Collaborators
// (CLI flags, config files) fill it in; after Run starts it is never
// written again.
type Options struct {
	ZMin     float64
	ZMax     float64
	ZStep    float64
	HaveZMin bool
	HaveZMax bool

	MaxFn           int
	LayerGap        float64
	MaxSimultaneous int
	SkipEmpty       bool
	DropCollinear   bool

	Empty     csg3.Policy
	Collapse  csg3.Policy
	Outside2D csg3.Policy
	Outside3D csg3.Policy

	PtEps  float64
	EqEps  float64
	SqrEps float64

	ColorRand uint32
	Workers   int
	Verbose   int

	NoCSG  bool
	NoTri  bool
	NoDiff bool

	Until Stage
}

// Default returns the option defaults, mirroring the CLI surface.
func Default() *Options {
	return &Options{
		ZStep:           0.2,
		ZMax:            -1,
		MaxFn:           100,
		LayerGap:        -1,
		MaxSimultaneous: csg2.MaxLazy,
		SkipEmpty:       true,
		DropCollinear:   true,
		Empty:           csg3.PolicyIgnore,
		Collapse:        csg3.PolicyIgnore,
		Outside2D:       csg3.PolicyError,
		Outside3D:       csg3.PolicyError,
		PtEps:           geom.DefaultPt,
		EqEps:           geom.DefaultEq,
		SqrEps:          geom.DefaultSqr,
		Workers:         1,
		Verbose:         1,
		Until:           StageEmitted,
	}
}

// Tol builds the immutable tolerance set from the configured epsilons.
func (o *Options) Tol() *geom.Tol {
	return geom.NewTol(o.PtEps, o.EqEps, o.SqrEps)
}

// Csg3Opt derives the CSG3 builder configuration.
func (o *Options) Csg3Opt(tol *geom.Tol) *csg3.Opt {
	return &csg3.Opt{
		MaxFn:     o.MaxFn,
		Empty:     o.Empty,
		Collapse:  o.Collapse,
		Outside2D: o.Outside2D,
		Outside3D: o.Outside3D,
		Tol:       tol,
	}
}

// Csg2Opt derives the Boolean evaluator configuration.
func (o *Options) Csg2Opt(tol *geom.Tol) *csg2.Opt {
	return &csg2.Opt{
		MaxSimultaneous: o.MaxSimultaneous,
		SkipEmpty:       o.SkipEmpty,
		DropCollinear:   o.DropCollinear,
		Tol:             tol,
	}
}

// Gap resolves the layer_gap option for an output format. The special
// value -1 means 0.01 for STL and 0 for the SCAD and JS outputs; other
// negative values are treated as 0.
func (o *Options) Gap(stl bool) float64 {
	if o.LayerGap == -1 {
		if stl {
			return 0.01
		}
		return 0
	}
	if o.LayerGap < 0 {
		return 0
	}
	return o.LayerGap
}

// fileConfig is the YAML shape of a config file. Absent keys leave the
// corresponding option untouched.
type fileConfig struct {
	ZMin            *float64 `yaml:"z_min"`
	ZMax            *float64 `yaml:"z_max"`
	ZStep           *float64 `yaml:"z_step"`
	MaxFn           *int     `yaml:"max_fn"`
	LayerGap        *float64 `yaml:"layer_gap"`
	MaxSimultaneous *int     `yaml:"max_simultaneous"`
	SkipEmpty       *bool    `yaml:"skip_empty"`
	DropCollinear   *bool    `yaml:"drop_collinear"`
	Empty           *string  `yaml:"empty"`
	Collapse        *string  `yaml:"collapse"`
	Outside2D       *string  `yaml:"outside_2d"`
	Outside3D       *string  `yaml:"outside_3d"`
	PtEps           *float64 `yaml:"pt_epsilon"`
	EqEps           *float64 `yaml:"eq_epsilon"`
	SqrEps          *float64 `yaml:"sqr_epsilon"`
	ColorRand       *uint32  `yaml:"color_rand"`
	Workers         *int     `yaml:"workers"`
	Verbose         *int     `yaml:"verbose"`
}

// LoadFile merges a YAML config file into the options.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if fc.ZMin != nil {
		o.ZMin, o.HaveZMin = *fc.ZMin, true
	}
	if fc.ZMax != nil {
		o.ZMax, o.HaveZMax = *fc.ZMax, true
	}
	if fc.ZStep != nil {
		o.ZStep = *fc.ZStep
	}
	if fc.MaxFn != nil {
		o.MaxFn = *fc.MaxFn
	}
	if fc.LayerGap != nil {
		o.LayerGap = *fc.LayerGap
	}
	if fc.MaxSimultaneous != nil {
		o.MaxSimultaneous = *fc.MaxSimultaneous
	}
	if fc.SkipEmpty != nil {
		o.SkipEmpty = *fc.SkipEmpty
	}
	if fc.DropCollinear != nil {
		o.DropCollinear = *fc.DropCollinear
	}
	for _, pp := range []struct {
		s *string
		p *csg3.Policy
		k string
	}{
		{fc.Empty, &o.Empty, "empty"},
		{fc.Collapse, &o.Collapse, "collapse"},
		{fc.Outside2D, &o.Outside2D, "outside_2d"},
		{fc.Outside3D, &o.Outside3D, "outside_3d"},
	} {
		if pp.s == nil {
			continue
		}
		pol, ok := csg3.ParsePolicy(*pp.s)
		if !ok {
			return fmt.Errorf("config %s: invalid %s policy '%s'", path, pp.k, *pp.s)
		}
		*pp.p = pol
	}
	if fc.PtEps != nil {
		o.PtEps = *fc.PtEps
	}
	if fc.EqEps != nil {
		o.EqEps = *fc.EqEps
	}
	if fc.SqrEps != nil {
		o.SqrEps = *fc.SqrEps
	}
	if fc.ColorRand != nil {
		o.ColorRand = *fc.ColorRand
	}
	if fc.Workers != nil {
		o.Workers = *fc.Workers
	}
	if fc.Verbose != nil {
		o.Verbose = *fc.Verbose
	}
	return nil
}
