// Package kernel defines the geometry kernel used to generate input meshes
// from solid descriptions. Implementations tessellate a Solid and feed the
// resulting triangles through a mesh.Builder so that coincident corners are
// welded into shared vertices before subdivision.
package kernel

import "github.com/chazu/subdiv/pkg/mesh"

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) Solid
	Sphere(radius float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Emit tessellates s and adds its triangles to b.
	Emit(s Solid, b *mesh.Builder) error

	// ToMesh tessellates s into a new welded mesh.
	ToMesh(s Solid) (*mesh.Mesh, error)
}
