package mesh

import (
	"fmt"
	"io"
	"strings"
)

func (v *Vertex) String() string {
	return fmt.Sprintf("Vertex{id: %d, position: (%g, %g, %g), edges: %v, triangles: %v, index: %s}",
		uint64(v.ID), v.Position.X, v.Position.Y, v.Position.Z,
		rawIDs(v.edges), rawIDs(v.triangles), indexString(v.Index))
}

func (e *Edge) String() string {
	return fmt.Sprintf("Edge{id: %d, a: %d, b: %d, triangles: %v}",
		uint64(e.ID), uint64(e.a), uint64(e.b), rawIDs(e.triangles))
}

func (t *Triangle) String() string {
	return fmt.Sprintf("Triangle{id: %d, v0: %d, v1: %d, v2: %d, e0: %d, e1: %d, e2: %d}",
		uint64(t.ID), uint64(t.v[0]), uint64(t.v[1]), uint64(t.v[2]),
		uint64(t.e[0]), uint64(t.e[1]), uint64(t.e[2]))
}

func indexString(i int) string {
	if i == NoIndex {
		return "None"
	}
	return fmt.Sprintf("%d", i)
}

func rawIDs[T ~uint64](ids []T) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

// Dump writes every entity with the ids it references. References that do
// not resolve in m are printed as None.
func (m *Mesh) Dump(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Mesh{vertices: %d, edges: %d, triangles: %d}\n",
		len(m.vertices), len(m.edges), len(m.triangles))

	for _, v := range m.Vertices() {
		edges := make([]string, len(v.edges))
		for i, id := range v.edges {
			_, ok := m.Edge(id)
			edges[i] = resolvedID(uint64(id), ok)
		}
		tris := make([]string, len(v.triangles))
		for i, id := range v.triangles {
			_, ok := m.Triangle(id)
			tris[i] = resolvedID(uint64(id), ok)
		}
		fmt.Fprintf(&sb, "  Vertex{id: %d, position: (%g, %g, %g), edges: [%s], triangles: [%s], index: %s}\n",
			uint64(v.ID), v.Position.X, v.Position.Y, v.Position.Z,
			strings.Join(edges, ", "), strings.Join(tris, ", "), indexString(v.Index))
	}

	for _, e := range m.edges {
		_, okA := m.Vertex(e.a)
		_, okB := m.Vertex(e.b)
		tris := make([]string, len(e.triangles))
		for i, id := range e.triangles {
			_, ok := m.Triangle(id)
			tris[i] = resolvedID(uint64(id), ok)
		}
		fmt.Fprintf(&sb, "  Edge{id: %d, a: %s, b: %s, triangles: [%s]}\n",
			uint64(e.ID), resolvedID(uint64(e.a), okA), resolvedID(uint64(e.b), okB),
			strings.Join(tris, ", "))
	}

	for _, t := range m.triangles {
		var vs, es [3]string
		for i := 0; i < 3; i++ {
			_, okV := m.Vertex(t.v[i])
			vs[i] = resolvedID(uint64(t.v[i]), okV)
			_, okE := m.Edge(t.e[i])
			es[i] = resolvedID(uint64(t.e[i]), okE)
		}
		fmt.Fprintf(&sb, "  Triangle{id: %d, v0: %s, v1: %s, v2: %s, e0: %s, e1: %s, e2: %s}\n",
			uint64(t.ID), vs[0], vs[1], vs[2], es[0], es[1], es[2])
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func resolvedID(id uint64, ok bool) string {
	if !ok {
		return "None"
	}
	return fmt.Sprintf("%d", id)
}
