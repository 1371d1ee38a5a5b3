package mesh

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// buildSquare creates the unit square split along the v0-v2 diagonal.
func buildSquare() (*Mesh, [4]*Vertex) {
	m := New()
	vs := [4]*Vertex{
		m.NewVertex(v3.Vec{X: -1, Y: -1, Z: 0}),
		m.NewVertex(v3.Vec{X: 1, Y: -1, Z: 0}),
		m.NewVertex(v3.Vec{X: 1, Y: 1, Z: 0}),
		m.NewVertex(v3.Vec{X: -1, Y: 1, Z: 0}),
	}
	m.AddTriangle(vs[0], vs[1], vs[2])
	m.AddTriangle(vs[0], vs[2], vs[3])
	return m, vs
}

// buildTetrahedron creates a closed regular tetrahedron centred on the origin.
func buildTetrahedron() *Mesh {
	b := NewBuilder(New(), 0)
	p := []v3.Vec{
		{X: 1, Y: 1, Z: 1},
		{X: 1, Y: -1, Z: -1},
		{X: -1, Y: 1, Z: -1},
		{X: -1, Y: -1, Z: 1},
	}
	b.Triangle(p[0], p[1], p[2])
	b.Triangle(p[0], p[3], p[1])
	b.Triangle(p[0], p[2], p[3])
	b.Triangle(p[1], p[3], p[2])
	return b.Mesh()
}

// recoverPanic runs f and returns the recovered value.
func recoverPanic(f func()) (r interface{}) {
	defer func() { r = recover() }()
	f()
	return nil
}

func TestAddTriangleCounts(t *testing.T) {
	m, _ := buildSquare()
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", m.VertexCount())
	}
	if m.EdgeCount() != 5 {
		t.Errorf("EdgeCount() = %d, want 5", m.EdgeCount())
	}
	if m.TriangleCount() != 2 {
		t.Errorf("TriangleCount() = %d, want 2", m.TriangleCount())
	}
}

func TestEdgeReuse(t *testing.T) {
	m, vs := buildSquare()

	var shared []*Edge
	for _, e := range m.Edges() {
		if e.Has(vs[0].ID) && e.Has(vs[2].ID) {
			shared = append(shared, e)
		}
	}
	if len(shared) != 1 {
		t.Fatalf("found %d edges between v0 and v2, want 1", len(shared))
	}
	e := shared[0]
	tris := e.Triangles()
	if len(tris) != 2 {
		t.Fatalf("shared edge has %d triangles, want 2", len(tris))
	}
	if tris[0] != m.Triangles()[0].ID || tris[1] != m.Triangles()[1].ID {
		t.Errorf("shared edge triangles = %v, want both triangles in insertion order", tris)
	}
	if !e.IsInterior() || e.IsBoundary() {
		t.Error("shared edge should be interior")
	}
}

func TestGetOrCreateEdgeEitherOrder(t *testing.T) {
	m := New()
	a := m.NewVertex(v3.Vec{})
	b := m.NewVertex(v3.Vec{X: 1})

	e1 := m.GetOrCreateEdge(a, b)
	e2 := m.GetOrCreateEdge(b, a)
	if !e1.Equal(e2) {
		t.Fatalf("GetOrCreateEdge(b, a) = %s, want %s", e2.ID, e1.ID)
	}
	if m.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", m.EdgeCount())
	}
	if len(a.Edges()) != 1 || len(b.Edges()) != 1 {
		t.Errorf("edge registered %d/%d times on endpoints, want 1/1", len(a.Edges()), len(b.Edges()))
	}
	if e1.A() != a.ID || e1.B() != b.ID {
		t.Errorf("edge slots = (%s, %s), want (%s, %s)", e1.A(), e1.B(), a.ID, b.ID)
	}
}

func TestBackReferences(t *testing.T) {
	m, vs := buildSquare()

	wantEdges := []int{3, 2, 3, 2}
	wantTris := []int{2, 1, 2, 1}
	for i, v := range vs {
		if got := len(v.Edges()); got != wantEdges[i] {
			t.Errorf("v%d has %d edges, want %d", i, got, wantEdges[i])
		}
		if got := len(v.Triangles()); got != wantTris[i] {
			t.Errorf("v%d has %d triangles, want %d", i, got, wantTris[i])
		}
		for _, e := range m.VertexEdges(v) {
			if !e.Has(v.ID) {
				t.Errorf("v%d lists %s which does not contain it", i, e.ID)
			}
		}
	}

	// v0's edges are attached in construction order: v0-v1, v2-v0, v3-v0.
	edges := m.VertexEdges(vs[0])
	wantOther := []VertexID{vs[1].ID, vs[2].ID, vs[3].ID}
	for i, e := range edges {
		if got := e.OtherVertex(vs[0].ID); got != wantOther[i] {
			t.Errorf("v0 edge %d other = %s, want %s", i, got, wantOther[i])
		}
	}
}

func TestTriangleWinding(t *testing.T) {
	m, _ := buildSquare()
	for _, tri := range m.Triangles() {
		corners := tri.Vertices()
		for i, e := range m.TriangleEdges(tri) {
			from, to := corners[i], corners[(i+1)%3]
			if !e.Has(from) || !e.Has(to) {
				t.Errorf("%s e%d does not connect %s-%s", tri.ID, i, from, to)
			}
		}
	}
}

func TestEdgeOtherVertexPanicsForNonEndpoint(t *testing.T) {
	m, vs := buildSquare()
	e := m.GetOrCreateEdge(vs[0], vs[1])

	r := recoverPanic(func() { e.OtherVertex(vs[2].ID) })
	var tm *TopologyMismatchError
	err, ok := r.(error)
	if !ok || !errors.As(err, &tm) {
		t.Fatalf("expected *TopologyMismatchError panic, got %v", r)
	}
	if tm.Vertex != vs[2].ID || tm.Edge != e.ID {
		t.Errorf("error = %+v, want edge %s vertex %s", tm, e.ID, vs[2].ID)
	}
}

func TestOppositeVertex(t *testing.T) {
	m, vs := buildSquare()
	tri := m.Triangles()[0] // v0, v1, v2

	tests := []struct {
		name string
		edge *Edge
		want VertexID
	}{
		{"e0 opposite v2", m.MustEdge(tri.E0()), vs[2].ID},
		{"e1 opposite v0", m.MustEdge(tri.E1()), vs[0].ID},
		{"e2 opposite v1", m.MustEdge(tri.E2()), vs[1].ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tri.OppositeVertex(tt.edge)
			if err != nil {
				t.Fatalf("OppositeVertex: %v", err)
			}
			if got != tt.want {
				t.Errorf("OppositeVertex = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOppositeVertexRejectsForeignEdge(t *testing.T) {
	m, vs := buildSquare()
	tri := m.Triangles()[0]                   // v0, v1, v2
	foreign := m.GetOrCreateEdge(vs[2], vs[3]) // belongs to the second triangle

	_, err := tri.OppositeVertex(foreign)
	var tm *TopologyMismatchError
	if !errors.As(err, &tm) {
		t.Fatalf("expected *TopologyMismatchError, got %v", err)
	}
	if tm.Triangle != tri.ID || tm.Edge != foreign.ID {
		t.Errorf("error = %+v", tm)
	}
	if !strings.Contains(err.Error(), "does not belong") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAddTriangleRepeatedVertexPanics(t *testing.T) {
	m := New()
	a := m.NewVertex(v3.Vec{})
	b := m.NewVertex(v3.Vec{X: 1})

	r := recoverPanic(func() { m.AddTriangle(a, b, a) })
	if _, ok := r.(*TopologyMismatchError); !ok {
		t.Fatalf("expected *TopologyMismatchError panic, got %v", r)
	}
	if m.TriangleCount() != 0 || m.EdgeCount() != 0 {
		t.Error("degenerate triangle must not modify the mesh")
	}
}

func TestRegisterForeignVertexWithSameIDPanics(t *testing.T) {
	m1 := New()
	m2 := New()
	a := m1.NewVertex(v3.Vec{})
	b := m1.NewVertex(v3.Vec{X: 1})
	c := m1.NewVertex(v3.Vec{Y: 1})
	m1.AddTriangle(a, b, c)

	// m2 starts its own sequence, so its first vertex reuses a's id.
	impostor := m2.NewVertex(v3.Vec{Z: 5})
	if impostor.ID != a.ID {
		t.Fatalf("test setup: ids %s and %s should collide", impostor.ID, a.ID)
	}
	r := recoverPanic(func() { m1.AddTriangle(impostor, b, c) })
	if _, ok := r.(*TopologyMismatchError); !ok {
		t.Fatalf("expected *TopologyMismatchError panic, got %v", r)
	}
}

func TestMustLookupsPanicOnStaleReference(t *testing.T) {
	m, _ := buildSquare()

	tests := []struct {
		name string
		f    func()
		kind string
	}{
		{"vertex", func() { m.MustVertex(9999) }, "vertex"},
		{"edge", func() { m.MustEdge(9999) }, "edge"},
		{"triangle", func() { m.MustTriangle(9999) }, "triangle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recoverPanic(tt.f)
			se, ok := r.(*StaleReferenceError)
			if !ok {
				t.Fatalf("expected *StaleReferenceError, got %v", r)
			}
			if se.Kind != tt.kind || se.ID != 9999 {
				t.Errorf("error = %+v", se)
			}
		})
	}
}

func TestStaleBackReferenceNamesTheReference(t *testing.T) {
	m, vs := buildSquare()
	vs[0].edges = append(vs[0].edges, 4242)

	r := recoverPanic(func() { m.VertexEdges(vs[0]) })
	se, ok := r.(*StaleReferenceError)
	if !ok {
		t.Fatalf("expected *StaleReferenceError, got %v", r)
	}
	if se.ID != 4242 || !strings.Contains(se.Error(), vs[0].ID.String()+".edges[3]") {
		t.Errorf("diagnostic %q does not name the reference", se.Error())
	}
}

func TestLookups(t *testing.T) {
	m, vs := buildSquare()

	if v, ok := m.Vertex(vs[3].ID); !ok || v != vs[3] {
		t.Error("Vertex lookup failed")
	}
	if _, ok := m.Vertex(0); ok {
		t.Error("zero id should not resolve")
	}
	for _, e := range m.Edges() {
		if got, ok := m.Edge(e.ID); !ok || got != e {
			t.Errorf("Edge(%s) lookup failed", e.ID)
		}
	}
	for _, tri := range m.Triangles() {
		if got, ok := m.Triangle(tri.ID); !ok || got != tri {
			t.Errorf("Triangle(%s) lookup failed", tri.ID)
		}
	}
}

func TestVerticesSortedByID(t *testing.T) {
	m := buildTetrahedron()
	vs := m.Vertices()
	for i := 1; i < len(vs); i++ {
		if vs[i-1].ID >= vs[i].ID {
			t.Fatalf("Vertices() not sorted: %s before %s", vs[i-1].ID, vs[i].ID)
		}
	}
}

func TestIDsAreSharedAndMonotonic(t *testing.T) {
	ids := NewIDs()
	m1 := New(WithIDs(ids))
	a := m1.NewVertex(v3.Vec{})
	m2 := New(WithIDs(ids))
	b := m2.NewVertex(v3.Vec{})
	if b.ID <= a.ID {
		t.Errorf("shared allocator returned %s after %s", b.ID, a.ID)
	}
	if m2.IDs() != ids {
		t.Error("IDs() should return the shared allocator")
	}
	if ids.Last() != uint64(b.ID) {
		t.Errorf("Last() = %d, want %d", ids.Last(), uint64(b.ID))
	}
}

func TestStats(t *testing.T) {
	tests := []struct {
		name   string
		m      *Mesh
		want   Stats
		closed bool
	}{
		{
			name: "square",
			m:    func() *Mesh { m, _ := buildSquare(); return m }(),
			want: Stats{Vertices: 4, Edges: 5, Triangles: 2, BoundaryEdges: 4, Euler: 1},
		},
		{
			name:   "tetrahedron",
			m:      buildTetrahedron(),
			want:   Stats{Vertices: 4, Edges: 6, Triangles: 4, BoundaryEdges: 0, Euler: 2},
			closed: true,
		},
		{
			name: "empty",
			m:    New(),
			want: Stats{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Stats()
			if got != tt.want {
				t.Errorf("Stats() = %+v, want %+v", got, tt.want)
			}
			if got.IsClosed() != tt.closed {
				t.Errorf("IsClosed() = %v, want %v", got.IsClosed(), tt.closed)
			}
		})
	}
}

func TestBuilderWelds(t *testing.T) {
	b := NewBuilder(New(), 1e-6)
	p0 := v3.Vec{X: 0, Y: 0, Z: 0}
	p1 := v3.Vec{X: 1, Y: 0, Z: 0}
	p2 := v3.Vec{X: 1, Y: 1, Z: 0}
	p3 := v3.Vec{X: 0, Y: 1, Z: 0}

	if _, ok := b.Triangle(p0, p1, p2); !ok {
		t.Fatal("first triangle rejected")
	}
	// Slightly perturbed copies of p0 and p2 must weld onto the same vertices.
	if _, ok := b.Triangle(v3.Vec{X: 1e-8}, v3.Vec{X: 1, Y: 1 + 1e-8}, p3); !ok {
		t.Fatal("second triangle rejected")
	}

	m := b.Mesh()
	if m.VertexCount() != 4 || m.EdgeCount() != 5 {
		t.Errorf("welded mesh has %d vertices / %d edges, want 4 / 5", m.VertexCount(), m.EdgeCount())
	}
	for i, v := range m.Vertices() {
		if v.Index != i {
			t.Errorf("vertex %s index = %d, want weld slot %d", v.ID, v.Index, i)
		}
	}
}

func TestBuilderSkipsDegenerateTriangles(t *testing.T) {
	b := NewBuilder(New(), 1e-3)
	_, ok := b.Triangle(v3.Vec{}, v3.Vec{X: 1e-5}, v3.Vec{Y: 1})
	if ok {
		t.Fatal("expected degenerate triangle to be skipped")
	}
	if b.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", b.Skipped())
	}
	if !b.Mesh().IsEmpty() {
		t.Error("mesh should still be empty")
	}
}

func TestNewVertexHasNoLineage(t *testing.T) {
	m := New()
	v := m.NewVertex(v3.Vec{})
	if v.HasIndex() {
		t.Errorf("NewVertex index = %d, want NoIndex", v.Index)
	}
	w := m.NewVertexWithIndex(v3.Vec{}, 7)
	if !w.HasIndex() || w.Index != 7 {
		t.Errorf("NewVertexWithIndex index = %d, want 7", w.Index)
	}
}

func TestDump(t *testing.T) {
	m, vs := buildSquare()
	var buf bytes.Buffer
	if err := m.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Mesh{vertices: 4, edges: 5, triangles: 2}") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	if got := strings.Count(out, "  Triangle{"); got != 2 {
		t.Errorf("dump lists %d triangles, want 2", got)
	}
	if strings.Contains(out, "None") {
		t.Error("consistent mesh should not print dangling references")
	}

	vs[1].triangles = append(vs[1].triangles, 777)
	buf.Reset()
	if err := m.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "None") {
		t.Error("dangling triangle reference should print as None")
	}
}

func TestEntityStrings(t *testing.T) {
	m, vs := buildSquare()
	if s := vs[0].String(); !strings.Contains(s, "position: (-1, -1, 0)") || !strings.Contains(s, "index: None") {
		t.Errorf("Vertex.String() = %q", s)
	}
	if s := m.Edges()[0].String(); !strings.HasPrefix(s, "Edge{id: ") {
		t.Errorf("Edge.String() = %q", s)
	}
	if s := m.Triangles()[0].String(); !strings.Contains(s, "e2: ") {
		t.Errorf("Triangle.String() = %q", s)
	}
}
