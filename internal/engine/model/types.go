// Package model builds GPU-ready vertex data from scene meshes.
package model

import "github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"

// Vertex is a flat-shaded mesh vertex: position plus its face normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// VertexSize is the byte stride of Vertex.
const VertexSize = 6 * 4

// Mesh holds de-indexed triangle data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Bounds   math.Bounds
	Skipped  int // Degenerate or out-of-range triangles dropped
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// ReverseWinding emits triangles in reverse vertex order, for meshes drawn
	// under a mirrored transform.
	ReverseWinding bool
}
