package csg3

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// FromScad lowers a typed SCAD tree to the solid tree. Transforms are
// multiplied into a current-transform register on the way down and frozen
// into each primitive; combinators keep their children.
func FromScad(t *scad.Tree, opt *Opt) (*Tree, error) {
	b := &builder{opt: opt, tree: &Tree{}, mark: t.Root}
	nodes, err := b.lowerBody(t.Top, geom.Ident())
	if err != nil {
		return nil, err
	}
	if b.mark != nil {
		// a '!' modifier drops everything but the marked subtree
		nodes = b.marked
	}
	if len(nodes) > 0 {
		b.tree.Root = &Node{Kind: KindAdd, Children: nodes}
	}
	return b.tree, nil
}

type builder struct {
	opt    *Opt
	tree   *Tree
	mark   *scad.Node // '!'-marked SCAD node, or nil
	marked []*Node
}

// report handles a policy-controlled geometry problem. It returns an
// error when the policy says fail, otherwise records a warning (or
// nothing) and returns nil; the caller elides the node.
func (b *builder) report(pol Policy, prob Problem, loc syn.Loc, format string, args ...interface{}) error {
	e := &GeomError{Problem: prob, Msg: fmt.Sprintf(format, args...), Loc: loc}
	switch pol {
	case PolicyError:
		return e
	case PolicyWarn:
		b.tree.Warnings = append(b.tree.Warnings, e)
	}
	return nil
}

func (b *builder) lowerBody(body []*scad.Node, m geom.Mat4) ([]*Node, error) {
	var nodes []*Node
	for _, c := range body {
		ns, err := b.lower(c, m)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, ns...)
	}
	return nodes, nil
}

// lower converts one SCAD node into zero or more solid nodes. Transforms
// return their children spliced; elided geometry returns an empty list.
func (b *builder) lower(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	nodes, err := b.lowerAux(n, m)
	if err != nil {
		return nil, err
	}
	if n == b.mark {
		b.marked = nodes
	}
	return nodes, nil
}

func (b *builder) lowerAux(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	switch n.Kind {
	case scad.KindUnion, scad.KindGroup:
		children, err := b.lowerBody(n.Children, m)
		if err != nil || len(children) == 0 {
			return nil, err
		}
		return []*Node{{Kind: KindAdd, Loc: n.Loc, Mod: n.Mod, Children: children}}, nil

	case scad.KindIntersection:
		var children []*Node
		for _, c := range n.Children {
			ns, err := b.lower(c, m)
			if err != nil {
				return nil, err
			}
			if len(ns) == 0 {
				// intersection with nothing is nothing
				return nil, nil
			}
			children = append(children, wrapAdd(ns, c.Loc))
		}
		if len(children) == 0 {
			return nil, nil
		}
		return []*Node{{Kind: KindCut, Loc: n.Loc, Mod: n.Mod, Children: children}}, nil

	case scad.KindDifference:
		if len(n.Children) == 0 {
			return nil, nil
		}
		first, err := b.lower(n.Children[0], m)
		if err != nil {
			return nil, err
		}
		if len(first) == 0 {
			return nil, nil
		}
		rest, err := b.lowerBody(n.Children[1:], m)
		if err != nil {
			return nil, err
		}
		if len(rest) == 0 {
			return first, nil
		}
		children := append([]*Node{wrapAdd(first, n.Children[0].Loc)}, rest...)
		return []*Node{{Kind: KindSub, Loc: n.Loc, Mod: n.Mod, Children: children}}, nil

	case scad.KindTranslate:
		d := n.Data.(scad.TranslateData)
		return b.lowerBody(n.Children, m.Mul(geom.Translate(d.V)))

	case scad.KindRotate:
		d := n.Data.(scad.RotateData)
		return b.lowerBody(n.Children, m.Mul(rotateMat(d)))

	case scad.KindScale:
		d := n.Data.(scad.ScaleData)
		return b.lowerBody(n.Children, m.Mul(geom.Scale(d.V)))

	case scad.KindMirror:
		d := n.Data.(scad.MirrorData)
		return b.lowerBody(n.Children, m.Mul(geom.Mirror(d.V)))

	case scad.KindMultmatrix:
		d := n.Data.(scad.MultmatrixData)
		return b.lowerBody(n.Children, m.Mul(d.M))

	case scad.KindLinearExtrude:
		return b.lowerExtrude(n, m)

	case scad.KindCube:
		return b.lowerCube(n, m)

	case scad.KindSphere:
		return b.lowerSphere(n, m)

	case scad.KindCylinder:
		return b.lowerCylinder(n, m)

	case scad.KindPolyhedron:
		return b.lowerPolyhedron(n, m)

	case scad.KindSquare, scad.KindCircle, scad.KindPolygon:
		if err := b.report(b.opt.Outside2D, Problem2DIn3D, n.Loc,
			"2D object '%s' in 3D context", n.Kind); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return nil, &GeomError{Msg: fmt.Sprintf("cannot lower '%s'", n.Kind), Loc: n.Loc}
}

// wrapAdd groups a lowered child list into a single node.
func wrapAdd(ns []*Node, loc syn.Loc) *Node {
	if len(ns) == 1 {
		return ns[0]
	}
	return &Node{Kind: KindAdd, Loc: loc, Children: ns}
}

func rotateMat(d scad.RotateData) geom.Mat4 {
	rad := math.Pi / 180
	if d.Axis != nil {
		return axisRotate(*d.Axis, d.A.Z*rad)
	}
	// Euler: x first, then y, then z
	return geom.RotateZ(d.A.Z * rad).
		Mul(geom.RotateY(d.A.Y * rad)).
		Mul(geom.RotateX(d.A.X * rad))
}

// axisRotate builds a rotation of angle a around an arbitrary axis.
func axisRotate(axis v3.Vec, a float64) geom.Mat4 {
	l := axis.Length()
	if l == 0 {
		return geom.Ident()
	}
	u := axis.DivScalar(l)
	s, c := math.Sin(a), math.Cos(a)
	ic := 1 - c
	m := geom.Ident()
	m.M[0][0] = c + u.X*u.X*ic
	m.M[0][1] = u.X*u.Y*ic - u.Z*s
	m.M[0][2] = u.X*u.Z*ic + u.Y*s
	m.M[1][0] = u.Y*u.X*ic + u.Z*s
	m.M[1][1] = c + u.Y*u.Y*ic
	m.M[1][2] = u.Y*u.Z*ic - u.X*s
	m.M[2][0] = u.Z*u.X*ic - u.Y*s
	m.M[2][1] = u.Z*u.Y*ic + u.X*s
	m.M[2][2] = c + u.Z*u.Z*ic
	return m
}

// collapsed checks whether the accumulated transform flattens volume.
func (b *builder) collapsed(m geom.Mat4, loc syn.Loc) (bool, error) {
	if math.Abs(m.Det3()) >= b.opt.Tol.Eq {
		return false, nil
	}
	err := b.report(b.opt.Collapse, ProblemCollapse, loc,
		"geometry collapsed by transform")
	return true, err
}

func (b *builder) lowerCube(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	d := n.Data.(scad.CubeData)
	if d.Size.X <= 0 || d.Size.Y <= 0 || d.Size.Z <= 0 {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "cube with empty size")
		return nil, err
	}
	if c, err := b.collapsed(m, n.Loc); c || err != nil {
		return nil, err
	}
	p := cubePoly(d, m, n.Loc)
	return []*Node{{Kind: KindPoly, Loc: n.Loc, Mod: n.Mod, Data: p}}, nil
}

func (b *builder) lowerSphere(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	d := n.Data.(scad.SphereData)
	if d.R <= 0 {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "sphere with empty radius")
		return nil, err
	}
	if c, err := b.collapsed(m, n.Loc); c || err != nil {
		return nil, err
	}
	fn := ResolveFn(d.Detail, d.R, b.opt.MaxFn)
	if !m.ZSeparable(b.opt.Tol.Eq) {
		p := spherePoly(d.R, fn, m, n.Loc)
		return []*Node{{Kind: KindPoly, Loc: n.Loc, Mod: n.Mod, Data: p}}, nil
	}
	mi, _ := m.Inverse()
	return []*Node{{
		Kind: KindSphere, Loc: n.Loc, Mod: n.Mod,
		Data: SphereData{R: d.R, Fn: fn, M: m, MI: mi},
	}}, nil
}

func (b *builder) lowerCylinder(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	d := n.Data.(scad.CylinderData)
	if d.H <= 0 || (d.R1 <= 0 && d.R2 <= 0) {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "cylinder with empty extent")
		return nil, err
	}
	if c, err := b.collapsed(m, n.Loc); c || err != nil {
		return nil, err
	}
	z0, z1 := 0.0, d.H
	if d.Center {
		z0, z1 = -d.H/2, d.H/2
	}
	rMax := math.Max(d.R1, d.R2)
	fn := ResolveFn(d.Detail, rMax, b.opt.MaxFn)
	r1, r2 := math.Max(d.R1, 0), math.Max(d.R2, 0)
	if !m.ZSeparable(b.opt.Tol.Eq) {
		p := conePoly(r1, r2, z0, z1, fn, m, n.Loc)
		return []*Node{{Kind: KindPoly, Loc: n.Loc, Mod: n.Mod, Data: p}}, nil
	}
	mi, _ := m.Inverse()
	return []*Node{{
		Kind: KindCyl, Loc: n.Loc, Mod: n.Mod,
		Data: CylData{R1: r1, R2: r2, Z0: z0, Z1: z1, Fn: fn, M: m, MI: mi},
	}}, nil
}

func (b *builder) lowerPolyhedron(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	d := n.Data.(scad.PolyhedronData)
	if len(d.Points) == 0 || len(d.Faces) == 0 {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "polyhedron with no geometry")
		return nil, err
	}
	if c, err := b.collapsed(m, n.Loc); c || err != nil {
		return nil, err
	}
	pts := make([]scad.Vec3Loc, len(d.Points))
	for i, p := range d.Points {
		pts[i] = scad.Vec3Loc{V: m.XformPos(p.V), Loc: p.Loc}
	}
	for _, face := range d.Faces {
		if len(face) < 3 {
			return nil, &GeomError{
				Problem: ProblemBadFace,
				Msg:     "polyhedron face with fewer than 3 vertices",
				Loc:     n.Loc,
			}
		}
		for _, idx := range face {
			if idx < 0 || idx >= len(pts) {
				return nil, &GeomError{
					Problem: ProblemBadFace,
					Msg:     fmt.Sprintf("polyhedron face index %d out of range", idx),
					Loc:     n.Loc,
				}
			}
		}
		if err := checkPlanar(pts, face, b.opt.Tol, n.Loc); err != nil {
			return nil, err
		}
	}
	return []*Node{{
		Kind: KindPoly, Loc: n.Loc, Mod: n.Mod,
		Data: PolyData{Points: pts, Faces: d.Faces},
	}}, nil
}

// checkPlanar verifies that every vertex of a face lies on the plane of
// its first three non-collinear vertices.
func checkPlanar(pts []scad.Vec3Loc, face []int, tol *geom.Tol, loc syn.Loc) error {
	if len(face) <= 3 {
		return nil
	}
	a := pts[face[0]].V
	var nrm v3.Vec
	found := false
	for i := 2; i < len(face); i++ {
		e1 := pts[face[1]].V.Sub(a)
		e2 := pts[face[i]].V.Sub(a)
		nrm = e1.Cross(e2)
		if nrm.Length() > tol.Sqr {
			found = true
			break
		}
	}
	if !found {
		return nil // fully collinear faces are caught as degenerate slices
	}
	nrm = nrm.DivScalar(nrm.Length())
	for _, idx := range face {
		d := pts[idx].V.Sub(a).Dot(nrm)
		if math.Abs(d) > tol.Eq {
			return &GeomError{
				Problem: ProblemNonPlanar,
				Msg:     "non-planar polyhedron face",
				Loc:     loc,
				Loc2:    pts[idx].Loc,
			}
		}
	}
	return nil
}

func (b *builder) lowerExtrude(n *scad.Node, m geom.Mat4) ([]*Node, error) {
	d := n.Data.(scad.LinearExtrudeData)
	if d.Height <= 0 {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "extrusion with empty height")
		return nil, err
	}
	if c, err := b.collapsed(m, n.Loc); c || err != nil {
		return nil, err
	}
	z0, z1 := 0.0, d.Height
	if d.Center {
		z0, z1 = -d.Height/2, d.Height/2
	}

	var pts []scad.Vec2Loc
	var paths [][]int
	ok, err := b.gatherProfile(n.Children, d.Detail, &pts, &paths)
	if err != nil {
		return nil, err
	}
	if !ok || len(paths) == 0 {
		err := b.report(b.opt.Empty, ProblemEmpty, n.Loc, "extrusion of empty profile")
		return nil, err
	}

	if !m.ZSeparable(b.opt.Tol.Eq) {
		p := prismPoly(pts, paths, z0, z1, m, n.Loc)
		return []*Node{{Kind: KindPoly, Loc: n.Loc, Mod: n.Mod, Data: p}}, nil
	}
	mi, _ := m.Inverse()
	return []*Node{{
		Kind: KindExtrude, Loc: n.Loc, Mod: n.Mod,
		Data: ExtrudeData{Points: pts, Paths: paths, Z0: z0, Z1: z1, M: m, MI: mi},
	}}, nil
}

// gatherProfile flattens the 2D children of an extrusion into one point
// array plus rings. 3D objects below an extrusion are a policy problem.
func (b *builder) gatherProfile(body []*scad.Node, det scad.Detail, pts *[]scad.Vec2Loc, paths *[][]int) (bool, error) {
	for _, c := range body {
		switch c.Kind {
		case scad.KindSquare:
			d := c.Data.(scad.SquareData)
			if d.Size.X <= 0 || d.Size.Y <= 0 {
				if err := b.report(b.opt.Empty, ProblemEmpty, c.Loc, "square with empty size"); err != nil {
					return false, err
				}
				continue
			}
			appendSquare(d, c.Loc, pts, paths)

		case scad.KindCircle:
			d := c.Data.(scad.CircleData)
			if d.R <= 0 {
				if err := b.report(b.opt.Empty, ProblemEmpty, c.Loc, "circle with empty radius"); err != nil {
					return false, err
				}
				continue
			}
			fn := ResolveFn(d.Detail, d.R, b.opt.MaxFn)
			appendCircle(d.R, fn, c.Loc, pts, paths)

		case scad.KindPolygon:
			d := c.Data.(scad.PolygonData)
			if len(d.Points) < 3 {
				if err := b.report(b.opt.Empty, ProblemEmpty, c.Loc, "polygon with no area"); err != nil {
					return false, err
				}
				continue
			}
			if err := appendPolygon(d, c.Loc, pts, paths); err != nil {
				return false, err
			}

		case scad.KindUnion, scad.KindGroup:
			if _, err := b.gatherProfile(c.Children, det, pts, paths); err != nil {
				return false, err
			}

		default:
			if err := b.report(b.opt.Outside3D, Problem3DIn2D, c.Loc,
				"3D object '%s' in 2D context", c.Kind); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}
