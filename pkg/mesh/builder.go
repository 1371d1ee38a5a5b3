package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultWeldTolerance is the grid size used to merge coincident positions.
const DefaultWeldTolerance = 1e-9

// Builder adds triangles given by positions instead of vertex handles.
// Positions that fall in the same weld cell share one vertex, so triangle
// soups (marching cubes output, scripted faces) come out connected.
// New vertices get their weld order as lineage index.
type Builder struct {
	m         *Mesh
	tolerance float64
	weld      map[weldKey]*Vertex
	skipped   int
}

type weldKey struct {
	x, y, z int64
}

// NewBuilder returns a builder writing into m. A non-positive tolerance
// selects DefaultWeldTolerance.
func NewBuilder(m *Mesh, tolerance float64) *Builder {
	if tolerance <= 0 {
		tolerance = DefaultWeldTolerance
	}
	return &Builder{
		m:         m,
		tolerance: tolerance,
		weld:      make(map[weldKey]*Vertex),
	}
}

// Mesh returns the mesh being built.
func (b *Builder) Mesh() *Mesh {
	return b.m
}

// Skipped returns how many degenerate triangles were dropped.
func (b *Builder) Skipped() int {
	return b.skipped
}

func (b *Builder) key(p v3.Vec) weldKey {
	return weldKey{
		x: int64(math.Round(p.X / b.tolerance)),
		y: int64(math.Round(p.Y / b.tolerance)),
		z: int64(math.Round(p.Z / b.tolerance)),
	}
}

// Vertex returns the vertex welded at p, allocating one if needed.
func (b *Builder) Vertex(p v3.Vec) *Vertex {
	k := b.key(p)
	if v, ok := b.weld[k]; ok {
		return v
	}
	v := b.m.NewVertexWithIndex(p, len(b.weld))
	b.weld[k] = v
	return v
}

// Triangle welds the three positions and adds the triangle. It returns
// false, adding nothing, when two corners weld to the same vertex.
func (b *Builder) Triangle(p0, p1, p2 v3.Vec) (*Triangle, bool) {
	v0, v1, v2 := b.Vertex(p0), b.Vertex(p1), b.Vertex(p2)
	if v0 == v1 || v1 == v2 || v2 == v0 {
		b.skipped++
		return nil, false
	}
	return b.m.AddTriangle(v0, v1, v2), true
}
