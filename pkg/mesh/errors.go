package mesh

import (
	"fmt"
	"strings"
)

// StaleReferenceError reports a back-reference whose target is not owned by
// the mesh. It signals a defect in mesh construction and is raised by panic.
type StaleReferenceError struct {
	Kind string // "vertex", "edge" or "triangle"
	ID   uint64 // identifier that failed to resolve
	Ref  string // which reference was followed, e.g. "e4.a"
}

func (e *StaleReferenceError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("stale reference: %s %d is not in the mesh", e.Kind, e.ID)
	}
	return fmt.Sprintf("stale reference: %s -> %s %d is not in the mesh", e.Ref, e.Kind, e.ID)
}

// TopologyMismatchError reports an entity passed to a query it does not
// belong to, such as an edge that is not one of a triangle's edges.
type TopologyMismatchError struct {
	Triangle TriangleID
	Edge     EdgeID
	Vertex   VertexID
	Message  string
}

func (e *TopologyMismatchError) Error() string {
	var parts []string
	if e.Triangle != 0 {
		parts = append(parts, e.Triangle.String())
	}
	if e.Edge != 0 {
		parts = append(parts, e.Edge.String())
	}
	if e.Vertex != 0 {
		parts = append(parts, e.Vertex.String())
	}
	if len(parts) == 0 {
		return "topology mismatch: " + e.Message
	}
	return fmt.Sprintf("topology mismatch (%s): %s", strings.Join(parts, ", "), e.Message)
}
