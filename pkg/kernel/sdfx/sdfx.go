// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/subdiv/pkg/kernel"
	"github.com/chazu/subdiv/pkg/logging"
	"github.com/chazu/subdiv/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes resolution along the longest
// bounding box axis. Subdivision multiplies the triangle count by four per
// pass, so the default is kept coarse.
const DefaultMeshCells = 32

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
	weld  float64
}

// New returns a kernel with DefaultMeshCells and the default weld tolerance.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells, 0)
}

// NewWithCells returns a kernel tessellating with the given number of
// marching cubes cells. A non-positive weld tolerance selects
// mesh.DefaultWeldTolerance.
func NewWithCells(cells int, weld float64) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells, weld: weld}
}

// Cells returns the marching cubes resolution.
func (k *SdfxKernel) Cells() int {
	return k.cells
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return wrap(s)
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a cylinder along Z with the given height and radius.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Emit tessellates s with marching cubes and welds the triangle soup into b.
func (k *SdfxKernel) Emit(s kernel.Solid, b *mesh.Builder) error {
	solid, ok := s.(*sdfxSolid)
	if !ok {
		return fmt.Errorf("sdfx: cannot tessellate foreign solid %T", s)
	}

	tlog := logging.NewTimeLog()
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(solid.s, renderer)

	before := b.Skipped()
	for _, tri := range triangles {
		b.Triangle(tri[0], tri[1], tri[2])
	}
	tlog.Debugf("marching cubes (%d cells) produced %d triangles, %d degenerate",
		k.cells, len(triangles), b.Skipped()-before)
	return nil
}

// ToMesh tessellates s into a new welded mesh.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*mesh.Mesh, error) {
	b := mesh.NewBuilder(mesh.New(), k.weld)
	if err := k.Emit(s, b); err != nil {
		return nil, err
	}
	return b.Mesh(), nil
}

// Triangles converts m into sdfx triangles in winding order.
func Triangles(m *mesh.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for _, t := range m.Triangles() {
		vs := m.TriangleVertices(t)
		out = append(out, &sdf.Triangle3{vs[0].Position, vs[1].Position, vs[2].Position})
	}
	return out
}

// SaveSTL writes m to path as a binary STL file.
func SaveSTL(path string, m *mesh.Mesh) error {
	if m.IsEmpty() {
		return fmt.Errorf("sdfx: refusing to write empty mesh to %s", path)
	}
	if err := render.SaveSTL(path, Triangles(m)); err != nil {
		return fmt.Errorf("sdfx: writing %s: %w", path, err)
	}
	return nil
}
