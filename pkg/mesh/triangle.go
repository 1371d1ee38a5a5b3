package mesh

// Triangle is one face of the mesh. Corners are kept in winding order and
// edge i connects corner i to corner (i+1)%3: E0 is V0-V1, E1 is V1-V2 and
// E2 is V2-V0.
type Triangle struct {
	ID TriangleID

	v [3]VertexID
	e [3]EdgeID
}

func (t *Triangle) V0() VertexID { return t.v[0] }
func (t *Triangle) V1() VertexID { return t.v[1] }
func (t *Triangle) V2() VertexID { return t.v[2] }

func (t *Triangle) E0() EdgeID { return t.e[0] }
func (t *Triangle) E1() EdgeID { return t.e[1] }
func (t *Triangle) E2() EdgeID { return t.e[2] }

// Vertices returns the three corners in winding order.
func (t *Triangle) Vertices() [3]VertexID { return t.v }

// Edges returns the three edges, E0 first.
func (t *Triangle) Edges() [3]EdgeID { return t.e }

// HasEdge reports whether id is one of the triangle's edges.
func (t *Triangle) HasEdge(id EdgeID) bool {
	return t.e[0] == id || t.e[1] == id || t.e[2] == id
}

// OppositeVertex returns the corner not touched by e. The edge must be one
// of the triangle's own edges; otherwise a *TopologyMismatchError is
// returned rather than guessing a corner.
func (t *Triangle) OppositeVertex(e *Edge) (VertexID, error) {
	if !t.HasEdge(e.ID) {
		return 0, &TopologyMismatchError{
			Triangle: t.ID,
			Edge:     e.ID,
			Message:  "edge does not belong to the triangle",
		}
	}
	for _, v := range t.v {
		if !e.Has(v) {
			return v, nil
		}
	}
	return 0, &TopologyMismatchError{
		Triangle: t.ID,
		Edge:     e.ID,
		Message:  "edge touches all three corners",
	}
}

// Equal compares triangles by identity.
func (t *Triangle) Equal(o *Triangle) bool {
	return t != nil && o != nil && t.ID == o.ID
}
