package mesh

// Edge is an unordered pair of vertices stored in fixed slots a and b,
// plus back-references to the triangles that use it.
type Edge struct {
	ID EdgeID

	a, b      VertexID
	triangles []TriangleID
}

// A returns the vertex in the first slot.
func (e *Edge) A() VertexID { return e.a }

// B returns the vertex in the second slot.
func (e *Edge) B() VertexID { return e.b }

// Triangles returns the incident triangles in attachment order.
// The returned slice must not be modified.
func (e *Edge) Triangles() []TriangleID {
	return e.triangles
}

// IsInterior reports whether exactly two triangles share the edge.
func (e *Edge) IsInterior() bool {
	return len(e.triangles) == 2
}

// IsBoundary reports whether the edge is not interior. Edges with 0, 1 or
// more than 2 incident triangles are all boundary edges.
func (e *Edge) IsBoundary() bool {
	return !e.IsInterior()
}

// Has reports whether v is one of the edge's endpoints.
func (e *Edge) Has(v VertexID) bool {
	return e.a == v || e.b == v
}

// OtherVertex returns the endpoint that is not v. It panics with a
// *TopologyMismatchError if v is not an endpoint.
func (e *Edge) OtherVertex(v VertexID) VertexID {
	switch v {
	case e.a:
		return e.b
	case e.b:
		return e.a
	}
	panic(&TopologyMismatchError{
		Edge:    e.ID,
		Vertex:  v,
		Message: "vertex is not an endpoint of the edge",
	})
}

// Equal compares edges by identity.
func (e *Edge) Equal(o *Edge) bool {
	return e != nil && o != nil && e.ID == o.ID
}

func (e *Edge) addTriangle(id TriangleID) {
	e.triangles = append(e.triangles, id)
}
