package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BB3 is an axis-aligned 3D bounding box. The zero-extent state is
// represented by an inverted box, see EmptyBB3.
type BB3 struct {
	Min, Max v3.Vec
}

// EmptyBB3 returns a box that contains nothing and extends from there.
func EmptyBB3() BB3 {
	inf := math.Inf(1)
	return BB3{
		Min: v3.Vec{X: inf, Y: inf, Z: inf},
		Max: v3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether no point was ever added.
func (b *BB3) IsEmpty() bool {
	return b.Min.X > b.Max.X
}

// Extend grows the box to contain p.
func (b *BB3) Extend(p v3.Vec) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
}

// ExtendBB grows the box to contain another box.
func (b *BB3) ExtendBB(o BB3) {
	if o.IsEmpty() {
		return
	}
	b.Extend(o.Min)
	b.Extend(o.Max)
}

// BB2 is an axis-aligned 2D bounding box.
type BB2 struct {
	Min, Max v2.Vec
}

// EmptyBB2 returns a 2D box that contains nothing.
func EmptyBB2() BB2 {
	inf := math.Inf(1)
	return BB2{
		Min: v2.Vec{X: inf, Y: inf},
		Max: v2.Vec{X: -inf, Y: -inf},
	}
}

// IsEmpty reports whether no point was ever added.
func (b *BB2) IsEmpty() bool {
	return b.Min.X > b.Max.X
}

// Extend grows the box to contain p.
func (b *BB2) Extend(p v2.Vec) {
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
}
