package csg3

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/laminate/pkg/geom"
	"github.com/chazu/laminate/pkg/scad"
	"github.com/chazu/laminate/pkg/syn"
)

// cubePoly builds the 8-vertex, 6-face polyhedron of a cube with the
// transform folded into the points.
func cubePoly(d scad.CubeData, m geom.Mat4, loc syn.Loc) PolyData {
	lo := v3.Vec{}
	hi := d.Size
	if d.Center {
		lo = d.Size.MulScalar(-0.5)
		hi = d.Size.MulScalar(0.5)
	}
	pts := make([]scad.Vec3Loc, 8)
	for i := 0; i < 8; i++ {
		c := lo
		if i&1 != 0 {
			c.X = hi.X
		}
		if i&2 != 0 {
			c.Y = hi.Y
		}
		if i&4 != 0 {
			c.Z = hi.Z
		}
		pts[i] = scad.Vec3Loc{V: m.XformPos(c), Loc: loc}
	}
	faces := [][]int{
		{0, 2, 3, 1}, // bottom
		{4, 5, 7, 6}, // top
		{0, 1, 5, 4}, // front
		{2, 6, 7, 3}, // back
		{0, 4, 6, 2}, // left
		{1, 3, 7, 5}, // right
	}
	return PolyData{Points: pts, Faces: faces}
}

// spherePoly tessellates a sphere as a UV grid with fn slices and fn/2
// stacks, used when the frozen transform tilts the local z axis.
func spherePoly(r float64, fn int, m geom.Mat4, loc syn.Loc) PolyData {
	slices := fn
	stacks := fn / 2
	if stacks < 2 {
		stacks = 2
	}

	var pts []scad.Vec3Loc
	add := func(v v3.Vec) int {
		pts = append(pts, scad.Vec3Loc{V: m.XformPos(v), Loc: loc})
		return len(pts) - 1
	}

	south := add(v3.Vec{Z: -r})
	rings := make([][]int, 0, stacks-1)
	for i := 1; i < stacks; i++ {
		phi := math.Pi * (float64(i)/float64(stacks) - 0.5)
		rr := r * math.Cos(phi)
		z := r * math.Sin(phi)
		ring := make([]int, slices)
		for j := 0; j < slices; j++ {
			a := 2 * math.Pi * float64(j) / float64(slices)
			ring[j] = add(v3.Vec{X: rr * math.Cos(a), Y: rr * math.Sin(a), Z: z})
		}
		rings = append(rings, ring)
	}
	north := add(v3.Vec{Z: r})

	var faces [][]int
	for j := 0; j < slices; j++ {
		jn := (j + 1) % slices
		faces = append(faces, []int{south, rings[0][jn], rings[0][j]})
	}
	for i := 0; i+1 < len(rings); i++ {
		for j := 0; j < slices; j++ {
			jn := (j + 1) % slices
			faces = append(faces, []int{
				rings[i][j], rings[i][jn], rings[i+1][jn], rings[i+1][j],
			})
		}
	}
	last := rings[len(rings)-1]
	for j := 0; j < slices; j++ {
		jn := (j + 1) % slices
		faces = append(faces, []int{north, last[j], last[jn]})
	}
	return PolyData{Points: pts, Faces: faces}
}

// conePoly tessellates a cylinder or cone between z0 and z1. A zero
// radius end degenerates to an apex vertex.
func conePoly(r1, r2, z0, z1 float64, fn int, m geom.Mat4, loc syn.Loc) PolyData {
	var pts []scad.Vec3Loc
	add := func(v v3.Vec) int {
		pts = append(pts, scad.Vec3Loc{V: m.XformPos(v), Loc: loc})
		return len(pts) - 1
	}
	ringAt := func(r, z float64) []int {
		ring := make([]int, fn)
		for j := 0; j < fn; j++ {
			a := 2 * math.Pi * float64(j) / float64(fn)
			ring[j] = add(v3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a), Z: z})
		}
		return ring
	}

	var faces [][]int
	switch {
	case r1 > 0 && r2 > 0:
		bot := ringAt(r1, z0)
		top := ringAt(r2, z1)
		faces = append(faces, reversed(bot), top)
		for j := 0; j < fn; j++ {
			jn := (j + 1) % fn
			faces = append(faces, []int{bot[j], bot[jn], top[jn], top[j]})
		}
	case r1 > 0:
		bot := ringAt(r1, z0)
		apex := add(v3.Vec{Z: z1})
		faces = append(faces, reversed(bot))
		for j := 0; j < fn; j++ {
			jn := (j + 1) % fn
			faces = append(faces, []int{bot[j], bot[jn], apex})
		}
	default:
		top := ringAt(r2, z1)
		apex := add(v3.Vec{Z: z0})
		faces = append(faces, top)
		for j := 0; j < fn; j++ {
			jn := (j + 1) % fn
			faces = append(faces, []int{top[jn], top[j], apex})
		}
	}
	return PolyData{Points: pts, Faces: faces}
}

func reversed(ring []int) []int {
	r := make([]int, len(ring))
	for i, v := range ring {
		r[len(ring)-1-i] = v
	}
	return r
}

// prismPoly tessellates an extruded 2D profile whose transform tilts the
// local z axis. Side walls are exact; the caps are emitted per ring.
func prismPoly(pts2 []scad.Vec2Loc, paths [][]int, z0, z1 float64, m geom.Mat4, loc syn.Loc) PolyData {
	var pts []scad.Vec3Loc
	add := func(p v2.Vec, z float64, l syn.Loc) int {
		pts = append(pts, scad.Vec3Loc{V: m.XformPos(v3.Vec{X: p.X, Y: p.Y, Z: z}), Loc: l})
		return len(pts) - 1
	}

	var faces [][]int
	for _, ring := range paths {
		bot := make([]int, len(ring))
		top := make([]int, len(ring))
		for i, idx := range ring {
			bot[i] = add(pts2[idx].V, z0, pts2[idx].Loc)
			top[i] = add(pts2[idx].V, z1, pts2[idx].Loc)
		}
		faces = append(faces, reversed(bot), top)
		for i := range ring {
			in := (i + 1) % len(ring)
			faces = append(faces, []int{bot[i], bot[in], top[in], top[i]})
		}
	}
	return PolyData{Points: pts, Faces: faces}
}

// appendSquare adds a square's ring to a 2D profile.
func appendSquare(d scad.SquareData, loc syn.Loc, pts *[]scad.Vec2Loc, paths *[][]int) {
	lo := v2.Vec{}
	hi := d.Size
	if d.Center {
		lo = d.Size.MulScalar(-0.5)
		hi = d.Size.MulScalar(0.5)
	}
	base := len(*pts)
	*pts = append(*pts,
		scad.Vec2Loc{V: v2.Vec{X: lo.X, Y: lo.Y}, Loc: loc},
		scad.Vec2Loc{V: v2.Vec{X: hi.X, Y: lo.Y}, Loc: loc},
		scad.Vec2Loc{V: v2.Vec{X: hi.X, Y: hi.Y}, Loc: loc},
		scad.Vec2Loc{V: v2.Vec{X: lo.X, Y: hi.Y}, Loc: loc},
	)
	*paths = append(*paths, []int{base, base + 1, base + 2, base + 3})
}

// appendCircle adds a circle's fn-gon ring to a 2D profile.
func appendCircle(r float64, fn int, loc syn.Loc, pts *[]scad.Vec2Loc, paths *[][]int) {
	base := len(*pts)
	ring := make([]int, fn)
	for j := 0; j < fn; j++ {
		a := 2 * math.Pi * float64(j) / float64(fn)
		*pts = append(*pts, scad.Vec2Loc{
			V:   v2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)},
			Loc: loc,
		})
		ring[j] = base + j
	}
	*paths = append(*paths, ring)
}

// appendPolygon adds a polygon's rings to a 2D profile, validating path
// indices. With no explicit paths all points form one ring.
func appendPolygon(d scad.PolygonData, loc syn.Loc, pts *[]scad.Vec2Loc, paths *[][]int) error {
	base := len(*pts)
	*pts = append(*pts, d.Points...)
	if d.Paths == nil {
		ring := make([]int, len(d.Points))
		for i := range ring {
			ring[i] = base + i
		}
		*paths = append(*paths, ring)
		return nil
	}
	for _, path := range d.Paths {
		if len(path) < 3 {
			return &GeomError{
				Problem: ProblemBadFace,
				Msg:     "polygon path with fewer than 3 vertices",
				Loc:     loc,
			}
		}
		ring := make([]int, len(path))
		for i, idx := range path {
			if idx < 0 || idx >= len(d.Points) {
				return &GeomError{
					Problem: ProblemBadFace,
					Msg:     "polygon path index out of range",
					Loc:     loc,
				}
			}
			ring[i] = base + idx
		}
		*paths = append(*paths, ring)
	}
	return nil
}
