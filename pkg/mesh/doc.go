// Package mesh holds an in-memory triangle mesh with full adjacency.
// The Mesh owns every vertex, edge and triangle; entities refer to each
// other only by identifier and are resolved through the owning Mesh.
package mesh
