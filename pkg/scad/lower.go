package scad

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/syn"
)

// OpenSCAD defaults for the special variables.
const (
	DefaultFa = 12.0
	DefaultFs = 2.0
)

// env is the lexically scoped set of $-variables. It is copied on write so
// a child call never leaks its settings upwards.
type env map[string]float64

func newEnv() env {
	return env{"$fn": 0, "$fa": DefaultFa, "$fs": DefaultFs}
}

func (e env) clone() env {
	c := make(env, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

func (e env) detail() Detail {
	return Detail{Fn: int(e["$fn"]), Fa: e["$fa"], Fs: e["$fs"]}
}

// FromSyn lowers a parsed syntax tree to the typed SCAD tree.
func FromSyn(t *syn.Tree) (*Tree, error) {
	l := &lowerer{tree: &Tree{}}
	top, err := l.lowerBody(t.Top, newEnv())
	if err != nil {
		return nil, err
	}
	l.tree.Top = top
	return l.tree, nil
}

type lowerer struct {
	tree *Tree
}

func (l *lowerer) lowerBody(body []*syn.Call, e env) ([]*Node, error) {
	var nodes []*Node
	for _, c := range body {
		n, err := l.lowerCall(c, e)
		if err != nil {
			return nil, err
		}
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func (l *lowerer) lowerCall(c *syn.Call, e env) (*Node, error) {
	if c.Mod&syn.ModDisable != 0 {
		return nil, nil
	}

	kind, ok := kindOf(c.Functor)
	if !ok {
		return nil, &Error{
			Msg: fmt.Sprintf("unknown functor '%s'", c.Functor),
			Loc: c.Loc,
		}
	}

	// $-keyword arguments open a new scope for this call and its subtree.
	ce := e
	cloned := false
	for _, a := range c.Args {
		if len(a.Key) > 0 && a.Key[0] == '$' {
			f, err := evalFloat(a.Value)
			if err != nil {
				return nil, err
			}
			if ce[a.Key] == f {
				continue
			}
			if !cloned {
				ce = e.clone()
				cloned = true
			}
			ce[a.Key] = f
		}
	}

	b, err := newBinder(c, kind)
	if err != nil {
		return nil, err
	}

	n := &Node{Kind: kind, Loc: c.Loc, Mod: c.Mod}

	switch kind {
	case KindCube:
		size, err := b.vec3Bcast("size", v3.Vec{X: 1, Y: 1, Z: 1})
		if err != nil {
			return nil, err
		}
		center, err := b.boolean("center", true)
		if err != nil {
			return nil, err
		}
		n.Data = CubeData{Size: size, Center: center}

	case KindSphere:
		r, err := b.radius(1)
		if err != nil {
			return nil, err
		}
		n.Data = SphereData{R: r, Detail: ce.detail()}

	case KindCylinder:
		d, err := b.cylinder(ce.detail())
		if err != nil {
			return nil, err
		}
		n.Data = d

	case KindPolyhedron:
		pts, err := b.points3("points")
		if err != nil {
			return nil, err
		}
		faces, err := b.faces()
		if err != nil {
			return nil, err
		}
		n.Data = PolyhedronData{Points: pts, Faces: faces}

	case KindSquare:
		size, err := b.vec2Bcast("size", v2.Vec{X: 1, Y: 1})
		if err != nil {
			return nil, err
		}
		center, err := b.boolean("center", true)
		if err != nil {
			return nil, err
		}
		n.Data = SquareData{Size: size, Center: center}

	case KindCircle:
		r, err := b.radius(1)
		if err != nil {
			return nil, err
		}
		n.Data = CircleData{R: r, Detail: ce.detail()}

	case KindPolygon:
		pts, err := b.points2("points")
		if err != nil {
			return nil, err
		}
		paths, err := b.indexLists("paths")
		if err != nil {
			return nil, err
		}
		n.Data = PolygonData{Points: pts, Paths: paths}

	case KindTranslate:
		v, err := b.vec3Pad("v")
		if err != nil {
			return nil, err
		}
		n.Data = TranslateData{V: v}

	case KindRotate:
		d, err := b.rotate()
		if err != nil {
			return nil, err
		}
		n.Data = d

	case KindScale:
		v, err := b.vec3Bcast("v", v3.Vec{X: 1, Y: 1, Z: 1})
		if err != nil {
			return nil, err
		}
		n.Data = ScaleData{V: v}

	case KindMirror:
		v, err := b.vec3Pad("v")
		if err != nil {
			return nil, err
		}
		n.Data = MirrorData{V: v}

	case KindMultmatrix:
		m, err := b.mat4("m")
		if err != nil {
			return nil, err
		}
		n.Data = MultmatrixData{M: m}

	case KindLinearExtrude:
		h, err := b.float("height", 100)
		if err != nil {
			return nil, err
		}
		center, err := b.boolean("center", false)
		if err != nil {
			return nil, err
		}
		n.Data = LinearExtrudeData{Height: h, Center: center, Detail: ce.detail()}
	}

	n.Children, err = l.lowerBody(c.Body, ce)
	if err != nil {
		return nil, err
	}

	if c.Mod&syn.ModRoot != 0 && l.tree.Root == nil {
		l.tree.Root = n
	}
	return n, nil
}

// kindOf maps a functor name to its kind. The brace group lowers to group.
func kindOf(functor string) (Kind, bool) {
	switch functor {
	case "cube":
		return KindCube, true
	case "sphere":
		return KindSphere, true
	case "cylinder":
		return KindCylinder, true
	case "polyhedron":
		return KindPolyhedron, true
	case "square":
		return KindSquare, true
	case "circle":
		return KindCircle, true
	case "polygon":
		return KindPolygon, true
	case "union":
		return KindUnion, true
	case "difference":
		return KindDifference, true
	case "intersection":
		return KindIntersection, true
	case "group", "{":
		return KindGroup, true
	case "translate":
		return KindTranslate, true
	case "rotate":
		return KindRotate, true
	case "scale":
		return KindScale, true
	case "mirror":
		return KindMirror, true
	case "multmatrix":
		return KindMultmatrix, true
	case "linear_extrude":
		return KindLinearExtrude, true
	}
	return 0, false
}
