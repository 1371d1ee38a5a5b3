package kernel

import (
	"testing"

	"github.com/chazu/subdiv/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel emits a single quad for every solid, which is enough to prove
// that the interface is satisfiable and that Emit composes with a Builder.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-x / 2, -y / 2, -z / 2},
		maxBB: [3]float64{x / 2, y / 2, z / 2},
	}
}

func (k *stubKernel) Sphere(r float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-r, -r, -r},
		maxBB: [3]float64{r, r, r},
	}
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid        { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

func (k *stubKernel) Emit(s Solid, b *mesh.Builder) error {
	lo, hi := s.BoundingBox()
	p0 := v3.Vec{X: lo[0], Y: lo[1]}
	p1 := v3.Vec{X: hi[0], Y: lo[1]}
	p2 := v3.Vec{X: hi[0], Y: hi[1]}
	p3 := v3.Vec{X: lo[0], Y: hi[1]}
	b.Triangle(p0, p1, p2)
	b.Triangle(p0, p2, p3)
	return nil
}

func (k *stubKernel) ToMesh(s Solid) (*mesh.Mesh, error) {
	b := mesh.NewBuilder(mesh.New(), 0)
	if err := k.Emit(s, b); err != nil {
		return nil, err
	}
	return b.Mesh(), nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{-5, -10, -15} {
		t.Errorf("Box min = %v, want [-5 -10 -15]", min)
	}
	if max != [3]float64{5, 10, 15} {
		t.Errorf("Box max = %v, want [5 10 15]", max)
	}
}

func TestStubKernelToMeshWelds(t *testing.T) {
	var k Kernel = &stubKernel{}
	m, err := k.ToMesh(k.Sphere(1))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	s := m.Stats()
	if s.Vertices != 4 || s.Edges != 5 || s.Triangles != 2 {
		t.Errorf("got V%d E%d F%d, want V4 E5 F2", s.Vertices, s.Edges, s.Triangles)
	}
}

func TestEmitAppendsToSharedBuilder(t *testing.T) {
	var k Kernel = &stubKernel{}
	b := mesh.NewBuilder(mesh.New(), 0)
	if err := k.Emit(k.Box(2, 2, 2), b); err != nil {
		t.Fatal(err)
	}
	if err := k.Emit(k.Box(4, 4, 4), b); err != nil {
		t.Fatal(err)
	}
	if got := b.Mesh().TriangleCount(); got != 4 {
		t.Errorf("TriangleCount() = %d, want 4", got)
	}
}
