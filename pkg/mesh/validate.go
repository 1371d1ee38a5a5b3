package mesh

import "fmt"

// ValidationSeverity indicates whether a finding breaks a mesh invariant or
// is merely unusual.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // invariant violated
	SeverityWarning                           // legal but unusual topology
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Entity   string             // entity the finding is about, e.g. "e12"; empty if mesh-level
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Entity, e.Message)
}

// Validate checks the adjacency invariants of m and returns every finding.
// It never panics on stale references; it reports them. An empty result
// means the mesh is consistent.
func Validate(m *Mesh) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(m)...)
	errs = append(errs, validateVertexIncidence(m)...)
	errs = append(errs, validateEdgeIncidence(m)...)
	errs = append(errs, validateTriangles(m)...)
	errs = append(errs, validateUniqueEdges(m)...)
	errs = append(errs, validateManifold(m)...)
	return errs
}

// Errors filters out warnings.
func Errors(findings []ValidationError) []ValidationError {
	var out []ValidationError
	for _, f := range findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

func stale(entity, what string, id fmt.Stringer) ValidationError {
	return ValidationError{
		Entity:   entity,
		Message:  fmt.Sprintf("%s reference %s does not exist", what, id),
		Severity: SeverityError,
	}
}

// validateReferences checks that every identifier stored on an entity
// resolves in the mesh.
func validateReferences(m *Mesh) []ValidationError {
	var errs []ValidationError

	for _, v := range m.Vertices() {
		for _, id := range v.edges {
			if _, ok := m.Edge(id); !ok {
				errs = append(errs, stale(v.ID.String(), "edge", id))
			}
		}
		for _, id := range v.triangles {
			if _, ok := m.Triangle(id); !ok {
				errs = append(errs, stale(v.ID.String(), "triangle", id))
			}
		}
	}

	for _, e := range m.edges {
		for _, id := range []VertexID{e.a, e.b} {
			if _, ok := m.Vertex(id); !ok {
				errs = append(errs, stale(e.ID.String(), "vertex", id))
			}
		}
		for _, id := range e.triangles {
			if _, ok := m.Triangle(id); !ok {
				errs = append(errs, stale(e.ID.String(), "triangle", id))
			}
		}
	}

	for _, t := range m.triangles {
		for _, id := range t.v {
			if _, ok := m.Vertex(id); !ok {
				errs = append(errs, stale(t.ID.String(), "vertex", id))
			}
		}
		for _, id := range t.e {
			if _, ok := m.Edge(id); !ok {
				errs = append(errs, stale(t.ID.String(), "edge", id))
			}
		}
	}

	return errs
}

// validateVertexIncidence checks that a vertex only lists edges and
// triangles that list it back, each exactly once.
func validateVertexIncidence(m *Mesh) []ValidationError {
	var errs []ValidationError

	for _, v := range m.Vertices() {
		seenEdges := make(map[EdgeID]bool, len(v.edges))
		for _, id := range v.edges {
			if seenEdges[id] {
				errs = append(errs, ValidationError{
					Entity:   v.ID.String(),
					Message:  fmt.Sprintf("edge %s listed more than once", id),
					Severity: SeverityError,
				})
			}
			seenEdges[id] = true
			if e, ok := m.Edge(id); ok && !e.Has(v.ID) {
				errs = append(errs, ValidationError{
					Entity:   v.ID.String(),
					Message:  fmt.Sprintf("lists edge %s which does not have it as an endpoint", id),
					Severity: SeverityError,
				})
			}
		}

		seenTris := make(map[TriangleID]bool, len(v.triangles))
		for _, id := range v.triangles {
			if seenTris[id] {
				errs = append(errs, ValidationError{
					Entity:   v.ID.String(),
					Message:  fmt.Sprintf("triangle %s listed more than once", id),
					Severity: SeverityError,
				})
			}
			seenTris[id] = true
			if t, ok := m.Triangle(id); ok && !hasCorner(t, v.ID) {
				errs = append(errs, ValidationError{
					Entity:   v.ID.String(),
					Message:  fmt.Sprintf("lists triangle %s which does not have it as a corner", id),
					Severity: SeverityError,
				})
			}
		}

		if len(v.triangles) == 0 {
			errs = append(errs, ValidationError{
				Entity:   v.ID.String(),
				Message:  "vertex is not used by any triangle",
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateEdgeIncidence checks that each edge is registered on both
// endpoints and only lists triangles that use it.
func validateEdgeIncidence(m *Mesh) []ValidationError {
	var errs []ValidationError

	for _, e := range m.edges {
		for _, id := range []VertexID{e.a, e.b} {
			v, ok := m.Vertex(id)
			if !ok {
				continue
			}
			if !containsEdge(v.edges, e.ID) {
				errs = append(errs, ValidationError{
					Entity:   e.ID.String(),
					Message:  fmt.Sprintf("endpoint %s does not list the edge", id),
					Severity: SeverityError,
				})
			}
		}
		for _, id := range e.triangles {
			if t, ok := m.Triangle(id); ok && !t.HasEdge(e.ID) {
				errs = append(errs, ValidationError{
					Entity:   e.ID.String(),
					Message:  fmt.Sprintf("lists triangle %s which does not use the edge", id),
					Severity: SeverityError,
				})
			}
		}
		if len(e.triangles) == 0 {
			errs = append(errs, ValidationError{
				Entity:   e.ID.String(),
				Message:  "edge is not used by any triangle",
				Severity: SeverityWarning,
			})
		}
	}

	return errs
}

// validateTriangles checks winding consistency: edge i must connect
// corner i and corner (i+1)%3, and the triangle must be registered on all
// of its corners and edges.
func validateTriangles(m *Mesh) []ValidationError {
	var errs []ValidationError

	for _, t := range m.triangles {
		for i := 0; i < 3; i++ {
			e, ok := m.Edge(t.e[i])
			if !ok {
				continue
			}
			from, to := t.v[i], t.v[(i+1)%3]
			if !e.Has(from) || !e.Has(to) {
				errs = append(errs, ValidationError{
					Entity:   t.ID.String(),
					Message:  fmt.Sprintf("e%d (%s) does not connect %s and %s", i, e.ID, from, to),
					Severity: SeverityError,
				})
			}
			if !containsTriangle(e.triangles, t.ID) {
				errs = append(errs, ValidationError{
					Entity:   t.ID.String(),
					Message:  fmt.Sprintf("edge %s does not list the triangle", e.ID),
					Severity: SeverityError,
				})
			}
		}
		for _, id := range t.v {
			if v, ok := m.Vertex(id); ok && !containsTriangle(v.triangles, t.ID) {
				errs = append(errs, ValidationError{
					Entity:   t.ID.String(),
					Message:  fmt.Sprintf("corner %s does not list the triangle", id),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateUniqueEdges checks that no two edges join the same vertex pair.
func validateUniqueEdges(m *Mesh) []ValidationError {
	type pair struct{ lo, hi VertexID }

	var errs []ValidationError
	seen := make(map[pair]EdgeID, len(m.edges))
	for _, e := range m.edges {
		p := pair{e.a, e.b}
		if p.lo > p.hi {
			p.lo, p.hi = p.hi, p.lo
		}
		if first, ok := seen[p]; ok {
			errs = append(errs, ValidationError{
				Entity:   e.ID.String(),
				Message:  fmt.Sprintf("duplicates edge %s between %s and %s", first, p.lo, p.hi),
				Severity: SeverityError,
			})
			continue
		}
		seen[p] = e.ID
	}
	return errs
}

// validateManifold warns about edges shared by more than two triangles.
func validateManifold(m *Mesh) []ValidationError {
	var errs []ValidationError
	for _, e := range m.edges {
		if len(e.triangles) > 2 {
			errs = append(errs, ValidationError{
				Entity:   e.ID.String(),
				Message:  fmt.Sprintf("non-manifold edge shared by %d triangles", len(e.triangles)),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func hasCorner(t *Triangle, v VertexID) bool {
	return t.v[0] == v || t.v[1] == v || t.v[2] == v
}

func containsEdge(ids []EdgeID, id EdgeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsTriangle(ids []TriangleID, id TriangleID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
