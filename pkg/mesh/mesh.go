package mesh

import (
	"fmt"
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh owns the canonical collections of vertices, edges and triangles.
// Cross-entity references are identifiers resolved through these
// collections. A Mesh is never edited incrementally beyond AddTriangle;
// subdivision builds a new one.
//
// A Mesh is not safe for concurrent mutation.
type Mesh struct {
	ids *IDs

	vertices  map[VertexID]*Vertex
	edges     []*Edge
	edgeIndex map[EdgeID]int
	triangles []*Triangle
	triIndex  map[TriangleID]int
}

// Option configures a new Mesh.
type Option func(*Mesh)

// WithIDs makes the mesh allocate identifiers from ids instead of a fresh
// allocator. Subdivision uses this so that ids keep increasing across passes.
func WithIDs(ids *IDs) Option {
	return func(m *Mesh) {
		if ids != nil {
			m.ids = ids
		}
	}
}

// New creates an empty mesh.
func New(opts ...Option) *Mesh {
	m := &Mesh{
		ids:       NewIDs(),
		vertices:  make(map[VertexID]*Vertex),
		edgeIndex: make(map[EdgeID]int),
		triIndex:  make(map[TriangleID]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IDs returns the identifier allocator used by the mesh.
func (m *Mesh) IDs() *IDs {
	return m.ids
}

// NewVertex allocates a vertex without lineage. It becomes part of the mesh
// when it is first used by AddTriangle.
func (m *Mesh) NewVertex(pos v3.Vec) *Vertex {
	return m.NewVertexWithIndex(pos, NoIndex)
}

// NewVertexWithIndex allocates a vertex carrying the given lineage index.
func (m *Mesh) NewVertexWithIndex(pos v3.Vec, index int) *Vertex {
	return &Vertex{
		ID:       VertexID(m.ids.nextID()),
		Position: pos,
		Index:    index,
	}
}

// AddTriangle registers the three vertices, finds or creates the edges
// v0-v1, v1-v2 and v2-v0, and links a new triangle into every back-reference
// list. The three vertices must be distinct.
func (m *Mesh) AddTriangle(v0, v1, v2 *Vertex) *Triangle {
	if v0.ID == v1.ID || v1.ID == v2.ID || v2.ID == v0.ID {
		panic(&TopologyMismatchError{
			Vertex:  repeatedVertex(v0, v1, v2),
			Message: "triangle repeats a vertex",
		})
	}

	m.registerVertex(v0)
	m.registerVertex(v1)
	m.registerVertex(v2)

	e0 := m.GetOrCreateEdge(v0, v1)
	e1 := m.GetOrCreateEdge(v1, v2)
	e2 := m.GetOrCreateEdge(v2, v0)

	t := &Triangle{
		ID: TriangleID(m.ids.nextID()),
		v:  [3]VertexID{v0.ID, v1.ID, v2.ID},
		e:  [3]EdgeID{e0.ID, e1.ID, e2.ID},
	}
	m.triIndex[t.ID] = len(m.triangles)
	m.triangles = append(m.triangles, t)

	v0.addTriangle(t.ID)
	v1.addTriangle(t.ID)
	v2.addTriangle(t.ID)

	e0.addTriangle(t.ID)
	e1.addTriangle(t.ID)
	e2.addTriangle(t.ID)

	return t
}

func repeatedVertex(v0, v1, v2 *Vertex) VertexID {
	if v0.ID == v1.ID || v0.ID == v2.ID {
		return v0.ID
	}
	return v1.ID
}

// registerVertex inserts v keyed by id. Re-registering the same vertex is a
// no-op; a different vertex with the same id is a construction defect.
func (m *Mesh) registerVertex(v *Vertex) {
	existing, ok := m.vertices[v.ID]
	if !ok {
		m.vertices[v.ID] = v
		return
	}
	if existing != v {
		panic(&TopologyMismatchError{
			Vertex:  v.ID,
			Message: "vertex id is already owned by a different vertex",
		})
	}
}

// GetOrCreateEdge returns the edge between v0 and v1, creating it if none
// exists. At most one edge ever exists between two vertices.
func (m *Mesh) GetOrCreateEdge(v0, v1 *Vertex) *Edge {
	m.registerVertex(v0)
	m.registerVertex(v1)

	for _, id := range v0.edges {
		e := m.resolveEdge(id, v0.ID.String()+".edges")
		if e.Has(v1.ID) {
			return e
		}
	}

	e := &Edge{
		ID: EdgeID(m.ids.nextID()),
		a:  v0.ID,
		b:  v1.ID,
	}
	m.edgeIndex[e.ID] = len(m.edges)
	m.edges = append(m.edges, e)
	v0.addEdge(e.ID)
	v1.addEdge(e.ID)
	return e
}

// Vertex returns the vertex with the given id.
func (m *Mesh) Vertex(id VertexID) (*Vertex, bool) {
	v, ok := m.vertices[id]
	return v, ok
}

// Edge returns the edge with the given id.
func (m *Mesh) Edge(id EdgeID) (*Edge, bool) {
	i, ok := m.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return m.edges[i], true
}

// Triangle returns the triangle with the given id.
func (m *Mesh) Triangle(id TriangleID) (*Triangle, bool) {
	i, ok := m.triIndex[id]
	if !ok {
		return nil, false
	}
	return m.triangles[i], true
}

// MustVertex returns the vertex with the given id, or panics with a
// *StaleReferenceError.
func (m *Mesh) MustVertex(id VertexID) *Vertex {
	return m.resolveVertex(id, "")
}

// MustEdge returns the edge with the given id, or panics with a
// *StaleReferenceError.
func (m *Mesh) MustEdge(id EdgeID) *Edge {
	return m.resolveEdge(id, "")
}

// MustTriangle returns the triangle with the given id, or panics with a
// *StaleReferenceError.
func (m *Mesh) MustTriangle(id TriangleID) *Triangle {
	return m.resolveTriangle(id, "")
}

func (m *Mesh) resolveVertex(id VertexID, ref string) *Vertex {
	v, ok := m.vertices[id]
	if !ok {
		panic(&StaleReferenceError{Kind: "vertex", ID: uint64(id), Ref: ref})
	}
	return v
}

func (m *Mesh) resolveEdge(id EdgeID, ref string) *Edge {
	e, ok := m.Edge(id)
	if !ok {
		panic(&StaleReferenceError{Kind: "edge", ID: uint64(id), Ref: ref})
	}
	return e
}

func (m *Mesh) resolveTriangle(id TriangleID, ref string) *Triangle {
	t, ok := m.Triangle(id)
	if !ok {
		panic(&StaleReferenceError{Kind: "triangle", ID: uint64(id), Ref: ref})
	}
	return t
}

// EdgeVertices resolves both endpoints of e.
func (m *Mesh) EdgeVertices(e *Edge) (a, b *Vertex) {
	a = m.resolveVertex(e.a, e.ID.String()+".a")
	b = m.resolveVertex(e.b, e.ID.String()+".b")
	return a, b
}

// TriangleVertices resolves the three corners of t in winding order.
func (m *Mesh) TriangleVertices(t *Triangle) [3]*Vertex {
	var out [3]*Vertex
	for i, id := range t.v {
		out[i] = m.resolveVertex(id, fmt.Sprintf("%s.v%d", t.ID, i))
	}
	return out
}

// TriangleEdges resolves the three edges of t, E0 first.
func (m *Mesh) TriangleEdges(t *Triangle) [3]*Edge {
	var out [3]*Edge
	for i, id := range t.e {
		out[i] = m.resolveEdge(id, fmt.Sprintf("%s.e%d", t.ID, i))
	}
	return out
}

// EdgeTriangles resolves the triangles incident to e.
func (m *Mesh) EdgeTriangles(e *Edge) []*Triangle {
	out := make([]*Triangle, len(e.triangles))
	for i, id := range e.triangles {
		out[i] = m.resolveTriangle(id, fmt.Sprintf("%s.triangles[%d]", e.ID, i))
	}
	return out
}

// VertexEdges resolves the edges incident to v in attachment order.
func (m *Mesh) VertexEdges(v *Vertex) []*Edge {
	out := make([]*Edge, len(v.edges))
	for i, id := range v.edges {
		out[i] = m.resolveEdge(id, fmt.Sprintf("%s.edges[%d]", v.ID, i))
	}
	return out
}

// OtherVertex resolves the endpoint of e that is not v.
func (m *Mesh) OtherVertex(e *Edge, v *Vertex) *Vertex {
	other := e.OtherVertex(v.ID)
	return m.resolveVertex(other, e.ID.String()+".other")
}

// Vertices returns every vertex ordered by id.
func (m *Mesh) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(m.vertices))
	for _, v := range m.vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns every edge in creation order. The slice must not be modified.
func (m *Mesh) Edges() []*Edge {
	return m.edges
}

// Triangles returns every triangle in creation order. The slice must not be
// modified.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

func (m *Mesh) VertexCount() int   { return len(m.vertices) }
func (m *Mesh) EdgeCount() int     { return len(m.edges) }
func (m *Mesh) TriangleCount() int { return len(m.triangles) }

// IsEmpty reports whether the mesh has no triangles.
func (m *Mesh) IsEmpty() bool {
	return len(m.triangles) == 0
}

// Stats summarizes the size and shape of a mesh.
type Stats struct {
	Vertices      int `json:"vertices"`
	Edges         int `json:"edges"`
	Triangles     int `json:"triangles"`
	BoundaryEdges int `json:"boundaryEdges"`
	Euler         int `json:"euler"` // V - E + F
}

// Stats computes summary counts for the mesh.
func (m *Mesh) Stats() Stats {
	s := Stats{
		Vertices:  len(m.vertices),
		Edges:     len(m.edges),
		Triangles: len(m.triangles),
	}
	for _, e := range m.edges {
		if e.IsBoundary() {
			s.BoundaryEdges++
		}
	}
	s.Euler = s.Vertices - s.Edges + s.Triangles
	return s
}

// IsClosed reports whether every edge is shared by exactly two triangles.
func (s Stats) IsClosed() bool {
	return s.Edges > 0 && s.BoundaryEdges == 0
}
