package mesh

import "fmt"

// VertexID identifies a vertex within the lineage of meshes sharing an IDs allocator.
type VertexID uint64

// EdgeID identifies an edge.
type EdgeID uint64

// TriangleID identifies a triangle.
type TriangleID uint64

func (id VertexID) String() string   { return fmt.Sprintf("v%d", uint64(id)) }
func (id EdgeID) String() string     { return fmt.Sprintf("e%d", uint64(id)) }
func (id TriangleID) String() string { return fmt.Sprintf("t%d", uint64(id)) }

// IDs hands out monotonically increasing identifiers. The zero value is
// ready to use and never returns 0, so a zero ID always means "unset".
//
// An IDs is owned by one logical owner at a time and is not safe for
// concurrent use. Independent meshes should use independent allocators.
type IDs struct {
	next uint64
}

// NewIDs returns a fresh allocator.
func NewIDs() *IDs {
	return &IDs{}
}

func (g *IDs) nextID() uint64 {
	g.next++
	return g.next
}

// Last returns the most recently allocated identifier, or 0.
func (g *IDs) Last() uint64 {
	return g.next
}
