package mesh

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NoIndex marks a vertex without lineage.
const NoIndex = -1

// Vertex is a point in space plus back-references to the edges and
// triangles incident to it. The back-references are identifiers that
// resolve through the owning Mesh.
type Vertex struct {
	ID       VertexID
	Position v3.Vec

	// Index ties the vertex to an original vertex slot across subdivision
	// passes. NoIndex when unset.
	Index int

	edges     []EdgeID
	triangles []TriangleID
}

// Edges returns the incident edges in the order they were attached.
// The returned slice must not be modified.
func (v *Vertex) Edges() []EdgeID {
	return v.edges
}

// Triangles returns the incident triangles in the order they were attached.
// The returned slice must not be modified.
func (v *Vertex) Triangles() []TriangleID {
	return v.triangles
}

// HasIndex reports whether the vertex carries a lineage index.
func (v *Vertex) HasIndex() bool {
	return v.Index != NoIndex
}

// Equal compares vertices by identity.
func (v *Vertex) Equal(o *Vertex) bool {
	return v != nil && o != nil && v.ID == o.ID
}

func (v *Vertex) addEdge(id EdgeID) {
	v.edges = append(v.edges, id)
}

func (v *Vertex) addTriangle(id TriangleID) {
	v.triangles = append(v.triangles, id)
}
