package scad

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/syn"
)

// paramNames lists each functor's parameters in positional order.
// $-prefixed keywords are handled by the environment, not bound here.
var paramNames = map[Kind][]string{
	KindCube:          {"size", "center"},
	KindSphere:        {"r", "d"},
	KindCylinder:      {"h", "r1", "r2", "center", "r", "d", "d1", "d2"},
	KindPolyhedron:    {"points", "faces", "triangles", "convexity"},
	KindSquare:        {"size", "center"},
	KindCircle:        {"r", "d"},
	KindPolygon:       {"points", "paths", "convexity"},
	KindUnion:         {},
	KindDifference:    {},
	KindIntersection:  {},
	KindGroup:         {},
	KindTranslate:     {"v"},
	KindRotate:        {"a", "v"},
	KindScale:         {"v"},
	KindMirror:        {"v"},
	KindMultmatrix:    {"m"},
	KindLinearExtrude: {"height", "center", "convexity"},
}

// binder resolves a call's argument list against the functor's parameter
// names: positional first, then keywords, keywords overriding.
type binder struct {
	kind Kind
	loc  syn.Loc
	vals map[string]syn.Value
}

func newBinder(c *syn.Call, kind Kind) (*binder, error) {
	params := paramNames[kind]
	b := &binder{kind: kind, loc: c.Loc, vals: make(map[string]syn.Value)}

	pos := 0
	for _, a := range c.Args {
		if a.Key != "" {
			continue
		}
		if pos >= len(params) {
			return nil, b.errf(a.Value.SrcLoc(), "too many arguments")
		}
		b.vals[params[pos]] = a.Value
		pos++
	}
	for _, a := range c.Args {
		if a.Key == "" || a.Key[0] == '$' {
			continue
		}
		known := false
		for _, p := range params {
			if p == a.Key {
				known = true
				break
			}
		}
		if !known {
			return nil, b.errf(a.KeyLoc, "unknown argument '%s'", a.Key)
		}
		b.vals[a.Key] = a.Value
	}
	return b, nil
}

func (b *binder) errf(loc syn.Loc, format string, args ...interface{}) *Error {
	return &Error{
		Msg: fmt.Sprintf("functor '%s': %s", b.kind, fmt.Sprintf(format, args...)),
		Loc: loc,
	}
}

func (b *binder) get(name string) (syn.Value, bool) {
	v, ok := b.vals[name]
	return v, ok
}

func evalFloat(v syn.Value) (float64, error) {
	switch v := v.(type) {
	case *syn.IntValue:
		return float64(v.Value), nil
	case *syn.FloatValue:
		return v.Value, nil
	}
	return 0, &Error{Msg: "expected a number", Loc: v.SrcLoc()}
}

func evalInt(v syn.Value) (int, error) {
	if i, ok := v.(*syn.IntValue); ok {
		return int(i.Value), nil
	}
	return 0, &Error{Msg: "expected an integer", Loc: v.SrcLoc()}
}

func evalBool(v syn.Value) (bool, error) {
	switch v := v.(type) {
	case *syn.IDValue:
		switch v.Name {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case *syn.IntValue:
		return v.Value != 0, nil
	}
	return false, &Error{Msg: "expected 'true' or 'false'", Loc: v.SrcLoc()}
}

func evalFloatArray(v syn.Value, min, max int) ([]float64, error) {
	a, ok := v.(*syn.ArrayValue)
	if !ok {
		return nil, &Error{Msg: "expected an array of numbers", Loc: v.SrcLoc()}
	}
	if len(a.Elems) < min || len(a.Elems) > max {
		return nil, &Error{
			Msg: fmt.Sprintf("expected %d..%d array elements, got %d", min, max, len(a.Elems)),
			Loc: a.Loc,
		}
	}
	fs := make([]float64, len(a.Elems))
	for i, e := range a.Elems {
		f, err := evalFloat(e)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func (b *binder) float(name string, def float64) (float64, error) {
	v, ok := b.get(name)
	if !ok {
		return def, nil
	}
	return evalFloat(v)
}

func (b *binder) boolean(name string, def bool) (bool, error) {
	v, ok := b.get(name)
	if !ok {
		return def, nil
	}
	return evalBool(v)
}

// radius resolves the r/d parameter pair; a diameter wins over a radius.
func (b *binder) radius(def float64) (float64, error) {
	if v, ok := b.get("d"); ok {
		d, err := evalFloat(v)
		return d / 2, err
	}
	if v, ok := b.get("r"); ok {
		return evalFloat(v)
	}
	return def, nil
}

// vec3Bcast accepts a scalar (broadcast to all axes) or a 3-element array.
func (b *binder) vec3Bcast(name string, def v3.Vec) (v3.Vec, error) {
	v, ok := b.get(name)
	if !ok {
		return def, nil
	}
	if f, err := evalFloat(v); err == nil {
		return v3.Vec{X: f, Y: f, Z: f}, nil
	}
	fs, err := evalFloatArray(v, 3, 3)
	if err != nil {
		return def, err
	}
	return v3.Vec{X: fs[0], Y: fs[1], Z: fs[2]}, nil
}

// vec3Pad accepts a 2- or 3-element array; a missing z is zero.
func (b *binder) vec3Pad(name string) (v3.Vec, error) {
	v, ok := b.get(name)
	if !ok {
		return v3.Vec{}, nil
	}
	fs, err := evalFloatArray(v, 2, 3)
	if err != nil {
		return v3.Vec{}, err
	}
	r := v3.Vec{X: fs[0], Y: fs[1]}
	if len(fs) == 3 {
		r.Z = fs[2]
	}
	return r, nil
}

// vec2Bcast accepts a scalar (broadcast) or a 2-element array.
func (b *binder) vec2Bcast(name string, def v2.Vec) (v2.Vec, error) {
	v, ok := b.get(name)
	if !ok {
		return def, nil
	}
	if f, err := evalFloat(v); err == nil {
		return v2.Vec{X: f, Y: f}, nil
	}
	fs, err := evalFloatArray(v, 2, 2)
	if err != nil {
		return def, err
	}
	return v2.Vec{X: fs[0], Y: fs[1]}, nil
}

func (b *binder) cylinder(det Detail) (CylinderData, error) {
	d := CylinderData{H: 1, R1: 1, R2: 1, Detail: det}
	var err error
	if d.H, err = b.float("h", 1); err != nil {
		return d, err
	}
	r := 1.0
	haveR := false
	if v, ok := b.get("d"); ok {
		f, err := evalFloat(v)
		if err != nil {
			return d, err
		}
		r, haveR = f/2, true
	} else if v, ok := b.get("r"); ok {
		f, err := evalFloat(v)
		if err != nil {
			return d, err
		}
		r, haveR = f, true
	}
	if haveR {
		d.R1, d.R2 = r, r
	}
	if v, ok := b.get("d1"); ok {
		f, err := evalFloat(v)
		if err != nil {
			return d, err
		}
		d.R1 = f / 2
	} else if v, ok := b.get("r1"); ok {
		if d.R1, err = evalFloat(v); err != nil {
			return d, err
		}
	}
	if v, ok := b.get("d2"); ok {
		f, err := evalFloat(v)
		if err != nil {
			return d, err
		}
		d.R2 = f / 2
	} else if v, ok := b.get("r2"); ok {
		if d.R2, err = evalFloat(v); err != nil {
			return d, err
		}
	}
	if d.Center, err = b.boolean("center", true); err != nil {
		return d, err
	}
	return d, nil
}

func (b *binder) rotate() (RotateData, error) {
	var d RotateData
	av, ok := b.get("a")
	if !ok {
		return d, nil
	}
	if f, err := evalFloat(av); err == nil {
		// scalar angle: around z, or around the given axis
		if vv, ok := b.get("v"); ok {
			fs, err := evalFloatArray(vv, 3, 3)
			if err != nil {
				return d, err
			}
			axis := v3.Vec{X: fs[0], Y: fs[1], Z: fs[2]}
			d.Axis = &axis
			d.A = v3.Vec{Z: f}
			return d, nil
		}
		d.A = v3.Vec{Z: f}
		return d, nil
	}
	fs, err := evalFloatArray(av, 3, 3)
	if err != nil {
		return d, err
	}
	d.A = v3.Vec{X: fs[0], Y: fs[1], Z: fs[2]}
	return d, nil
}

func (b *binder) points3(name string) ([]Vec3Loc, error) {
	v, ok := b.get(name)
	if !ok {
		return nil, b.errf(b.loc, "missing required argument '%s'", name)
	}
	a, ok := v.(*syn.ArrayValue)
	if !ok {
		return nil, &Error{Msg: "expected an array of points", Loc: v.SrcLoc()}
	}
	pts := make([]Vec3Loc, 0, len(a.Elems))
	for _, e := range a.Elems {
		fs, err := evalFloatArray(e, 3, 3)
		if err != nil {
			return nil, err
		}
		pts = append(pts, Vec3Loc{
			V:   v3.Vec{X: fs[0], Y: fs[1], Z: fs[2]},
			Loc: e.SrcLoc(),
		})
	}
	return pts, nil
}

func (b *binder) points2(name string) ([]Vec2Loc, error) {
	v, ok := b.get(name)
	if !ok {
		return nil, b.errf(b.loc, "missing required argument '%s'", name)
	}
	a, ok := v.(*syn.ArrayValue)
	if !ok {
		return nil, &Error{Msg: "expected an array of points", Loc: v.SrcLoc()}
	}
	pts := make([]Vec2Loc, 0, len(a.Elems))
	for _, e := range a.Elems {
		fs, err := evalFloatArray(e, 2, 2)
		if err != nil {
			return nil, err
		}
		pts = append(pts, Vec2Loc{
			V:   v2.Vec{X: fs[0], Y: fs[1]},
			Loc: e.SrcLoc(),
		})
	}
	return pts, nil
}

// indexLists resolves an optional array-of-index-arrays argument.
func (b *binder) indexLists(name string) ([][]int, error) {
	v, ok := b.get(name)
	if !ok {
		return nil, nil
	}
	a, ok := v.(*syn.ArrayValue)
	if !ok {
		return nil, &Error{Msg: "expected an array of index lists", Loc: v.SrcLoc()}
	}
	lists := make([][]int, 0, len(a.Elems))
	for _, e := range a.Elems {
		ea, ok := e.(*syn.ArrayValue)
		if !ok {
			return nil, &Error{Msg: "expected an index list", Loc: e.SrcLoc()}
		}
		idx := make([]int, 0, len(ea.Elems))
		for _, ie := range ea.Elems {
			i, err := evalInt(ie)
			if err != nil {
				return nil, err
			}
			idx = append(idx, i)
		}
		lists = append(lists, idx)
	}
	return lists, nil
}

// faces resolves the polyhedron face lists, accepting the legacy
// 'triangles' spelling.
func (b *binder) faces() ([][]int, error) {
	if _, ok := b.get("faces"); ok {
		return b.indexLists("faces")
	}
	if _, ok := b.get("triangles"); ok {
		return b.indexLists("triangles")
	}
	return nil, b.errf(b.loc, "missing required argument 'faces'")
}

// mat4 resolves a multmatrix argument: 3 or 4 rows of 4 numbers.
func (b *binder) mat4(name string) (geom.Mat4, error) {
	v, ok := b.get(name)
	if !ok {
		return geom.Ident(), b.errf(b.loc, "missing required argument '%s'", name)
	}
	a, ok := v.(*syn.ArrayValue)
	if !ok || len(a.Elems) < 3 || len(a.Elems) > 4 {
		return geom.Ident(), &Error{Msg: "expected a 3x4 or 4x4 matrix", Loc: v.SrcLoc()}
	}
	var e [16]float64
	e[15] = 1
	for r, row := range a.Elems {
		if r == 3 {
			break
		}
		fs, err := evalFloatArray(row, 4, 4)
		if err != nil {
			return geom.Ident(), err
		}
		copy(e[r*4:], fs)
	}
	return geom.NewMat4(e), nil
}
