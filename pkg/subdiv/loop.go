// Package subdiv implements Loop subdivision of triangle meshes.
//
// Each pass reads only the input mesh and writes a brand-new one: every
// edge gets an edge point, every vertex gets a repositioned vertex point,
// and every triangle is replaced by four.
package subdiv

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/subdiv/pkg/logging"
	"github.com/chazu/subdiv/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Edge point weights for interior edges: EdgeAlpha for the endpoints and
// EdgeBeta for the two opposite corners.
const (
	EdgeAlpha = 3.0 / 8.0
	EdgeBeta  = 1.0 / 8.0
)

// Vertex point weights for a vertex with exactly two neighbours.
const (
	cornerSelf     = 3.0 / 4.0
	cornerNeighbor = 1.0 / 8.0
)

// ErrNegativeIterations is returned by Subdivide for a negative pass count.
var ErrNegativeIterations = errors.New("subdiv: iterations must be non-negative")

// Subdivide applies iterations Loop passes, feeding each result into the
// next. Zero iterations returns m itself.
func Subdivide(m *mesh.Mesh, iterations int) (*mesh.Mesh, error) {
	if iterations < 0 {
		return nil, ErrNegativeIterations
	}
	tlog := logging.NewTimeLog()
	for i := 0; i < iterations; i++ {
		next, err := SubdivideOnce(m)
		if err != nil {
			return nil, fmt.Errorf("subdiv: pass %d: %w", i+1, err)
		}
		m = next
	}
	if iterations > 0 {
		s := m.Stats()
		tlog.Debugf("subdivided %d times to %d vertices, %d edges, %d triangles",
			iterations, s.Vertices, s.Edges, s.Triangles)
	}
	return m, nil
}

// SubdivideOnce performs a single Loop pass. The input is not modified; the
// result allocates ids from the input's allocator.
func SubdivideOnce(m *mesh.Mesh) (*mesh.Mesh, error) {
	out := mesh.New(mesh.WithIDs(m.IDs()))

	edgePoints := make(map[mesh.EdgeID]*mesh.Vertex, m.EdgeCount())
	for _, e := range m.Edges() {
		p, err := edgePoint(m, e)
		if err != nil {
			return nil, err
		}
		a, _ := m.EdgeVertices(e)
		edgePoints[e.ID] = out.NewVertexWithIndex(p, a.Index)
	}

	vertexPoints := make(map[mesh.VertexID]*mesh.Vertex, m.VertexCount())
	for _, v := range m.Vertices() {
		vertexPoints[v.ID] = out.NewVertexWithIndex(vertexPoint(m, v), v.Index)
	}

	for _, t := range m.Triangles() {
		var ev, nv [3]*mesh.Vertex
		for i, id := range t.Edges() {
			ev[i] = lookupPoint(edgePoints, id, "edge point")
		}
		for i, id := range t.Vertices() {
			nv[i] = lookupPoint(vertexPoints, id, "vertex point")
		}

		out.AddTriangle(nv[0], ev[0], ev[2])
		out.AddTriangle(ev[0], nv[1], ev[1])
		out.AddTriangle(ev[0], ev[1], ev[2])
		out.AddTriangle(ev[2], ev[1], nv[2])
	}

	return out, nil
}

// lookupPoint fetches a point computed in an earlier phase. A miss means the
// triangle references an entity the mesh does not own.
func lookupPoint[K mesh.EdgeID | mesh.VertexID](points map[K]*mesh.Vertex, id K, what string) *mesh.Vertex {
	p, ok := points[id]
	if !ok {
		kind := "vertex"
		if _, isEdge := any(id).(mesh.EdgeID); isEdge {
			kind = "edge"
		}
		panic(&mesh.StaleReferenceError{Kind: kind, ID: uint64(id), Ref: what})
	}
	return p
}

// edgePoint computes the new point inserted on e. Boundary edges get their
// exact midpoint. Interior edges blend the endpoints with the corners
// opposite the edge in its first and second triangle.
func edgePoint(m *mesh.Mesh, e *mesh.Edge) (v3.Vec, error) {
	a, b := m.EdgeVertices(e)
	if e.IsBoundary() {
		return a.Position.Add(b.Position).MulScalar(0.5), nil
	}

	tris := m.EdgeTriangles(e)
	leftID, err := tris[0].OppositeVertex(e)
	if err != nil {
		return v3.Vec{}, err
	}
	rightID, err := tris[1].OppositeVertex(e)
	if err != nil {
		return v3.Vec{}, err
	}
	left := m.MustVertex(leftID)
	right := m.MustVertex(rightID)

	ends := a.Position.Add(b.Position).MulScalar(EdgeAlpha)
	wings := left.Position.Add(right.Position).MulScalar(EdgeBeta)
	return ends.Add(wings), nil
}

// adjacentVertices walks v's edges in stored order. Neighbours reached over
// interior edges are collected until the first boundary edge is seen; at
// that point the list is cleared and from then on only neighbours across
// boundary edges are kept.
func adjacentVertices(m *mesh.Mesh, v *mesh.Vertex) []*mesh.Vertex {
	adjacent := make([]*mesh.Vertex, 0, len(v.Edges()))
	boundary := false

	for _, e := range m.VertexEdges(v) {
		boundaryEdge := e.IsBoundary()
		if boundaryEdge && !boundary {
			adjacent = adjacent[:0]
			boundary = true
		}
		if !boundary || boundaryEdge {
			adjacent = append(adjacent, m.OtherVertex(e, v))
		}
	}
	return adjacent
}

// LoopWeight returns the neighbour weight for a vertex of valence n >= 3.
// Valence 3 uses the fixed 3/16.
func LoopWeight(n int) float64 {
	if n == 3 {
		return 3.0 / 16.0
	}
	fn := float64(n)
	c := 3.0/8.0 + 1.0/4.0*math.Cos(2*math.Pi/fn)
	return (1 / fn) * (5.0/8.0 - c*c)
}

// vertexPoint computes the repositioned location of v.
func vertexPoint(m *mesh.Mesh, v *mesh.Vertex) v3.Vec {
	adjacent := adjacentVertices(m, v)
	n := len(adjacent)

	switch {
	case n < 2:
		return v.Position
	case n == 2:
		q := adjacent[0].Position.Add(adjacent[1].Position)
		return v.Position.MulScalar(cornerSelf).Add(q.MulScalar(cornerNeighbor))
	}

	alpha := LoopWeight(n)
	p := v.Position.MulScalar(1 - float64(n)*alpha)
	for _, q := range adjacent {
		p = p.Add(q.Position.MulScalar(alpha))
	}
	return p
}
