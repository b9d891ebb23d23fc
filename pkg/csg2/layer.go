package csg2

import (
	"github.com/chazu/laminate/pkg/csg3"
)

// Layer is the fully evaluated result of one cutting plane.
type Layer struct {
	Z    float64
	Poly *Poly // flat evaluated polygon set
	Diff *Poly // symmetric difference against the layer below, when computed
}

// EvalLayer slices the solid tree at z and evaluates all Boolean
// combinators into one flat polygon set. Leaves materialise their
// per-layer operands on demand; the combinator structure mirrors the
// solid tree one-to-one.
func EvalLayer(root *csg3.Node, z float64, opt *Opt, s *Scratch) (*Poly, error) {
	if root == nil {
		return &Poly{}, nil
	}
	return evalNode(root, z, opt, s)
}

func evalNode(n *csg3.Node, z float64, opt *Opt, s *Scratch) (*Poly, error) {
	if n.Kind.IsPrimitive() {
		return Slice(n, z, opt.Tol)
	}

	operands := make([]*Poly, 0, len(n.Children))
	for _, c := range n.Children {
		o, err := evalNode(c, z, opt, s)
		if err != nil {
			return nil, err
		}
		operands = append(operands, o)
	}

	var op BoolOp
	switch n.Kind {
	case csg3.KindSub:
		op = OpDiff
	case csg3.KindCut:
		op = OpCut
	default:
		op = OpUnion
	}
	return Combine(op, operands, opt, s)
}

// ConcatLayer slices the tree at z without evaluating any Booleans: all
// leaf cross-sections are concatenated as-is. Used when Boolean evaluation
// is switched off (Options.NoCSG).
func ConcatLayer(root *csg3.Node, z float64, opt *Opt) (*Poly, error) {
	p := &Poly{}
	if root == nil {
		return p, nil
	}
	var walk func(n *csg3.Node) error
	walk = func(n *csg3.Node) error {
		if n.Kind.IsPrimitive() {
			o, err := Slice(n, z, opt.Tol)
			if err != nil {
				return err
			}
			p.Append(o)
			return nil
		}
		for _, c := range n.Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return p, nil
}

