// Package tessellate flattens an adjacency mesh into the indexed float
// buffers a renderer or an export format consumes.
package tessellate

import (
	"github.com/chazu/subdiv/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Buffers is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Buffers struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which input this came from
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// IsEmpty returns true if the buffers hold no geometry.
func (b *Buffers) IsEmpty() bool {
	return len(b.Vertices) == 0
}

// Flatten emits one buffer vertex per mesh vertex, in id order, with smooth
// normals: each vertex normal is the area-weighted average of the normals
// of its triangles. Vertices whose triangles are all degenerate get a zero
// normal.
func Flatten(m *mesh.Mesh, name string) *Buffers {
	vertices := m.Vertices()
	slot := make(map[mesh.VertexID]uint32, len(vertices))

	b := &Buffers{
		Vertices: make([]float32, 0, 3*len(vertices)),
		Normals:  make([]float32, 0, 3*len(vertices)),
		Indices:  make([]uint32, 0, 3*m.TriangleCount()),
		Name:     name,
	}

	for i, v := range vertices {
		slot[v.ID] = uint32(i)
		b.Vertices = append(b.Vertices, float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z))
	}

	// The unnormalized cross product has length twice the triangle area,
	// so summing it weights by area.
	sums := make([]v3.Vec, len(vertices))
	for _, t := range m.Triangles() {
		vs := m.TriangleVertices(t)
		n := faceCross(vs)
		for _, v := range vs {
			i := slot[v.ID]
			sums[i] = sums[i].Add(n)
			b.Indices = append(b.Indices, i)
		}
	}

	for _, n := range sums {
		n = normalize(n)
		b.Normals = append(b.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return b
}

// Faceted emits three buffer vertices per triangle, each carrying the face
// normal, so the surface renders with hard edges.
func Faceted(m *mesh.Mesh, name string) *Buffers {
	numVerts := 3 * m.TriangleCount()
	b := &Buffers{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
		Name:     name,
	}

	for i, t := range m.Triangles() {
		vs := m.TriangleVertices(t)
		n := normalize(faceCross(vs))
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)

		for j, v := range vs {
			p := v.Position
			b.Vertices = append(b.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			b.Normals = append(b.Normals, nx, ny, nz)
			b.Indices = append(b.Indices, uint32(i*3+j))
		}
	}
	return b
}

func faceCross(vs [3]*mesh.Vertex) v3.Vec {
	e1 := vs[1].Position.Sub(vs[0].Position)
	e2 := vs[2].Position.Sub(vs[0].Position)
	return e1.Cross(e2)
}

func normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return v.DivScalar(l)
}
