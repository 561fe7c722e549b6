package model

import (
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// BuildFlat expands a scene mesh into per-face vertices carrying the face
// normal, in mesh-local space.
func BuildFlat(src *scene.Mesh, opts BuildOptions) *Mesh {
	out := &Mesh{Bounds: math.EmptyBounds()}
	if src == nil {
		return out
	}

	tris := src.TriangleCount()
	out.Vertices = make([]Vertex, 0, tris*3)

	for t := 0; t < tris; t++ {
		ids, ok := triangleIDs(src, t)
		if !ok {
			out.Skipped++
			continue
		}
		v0 := src.Positions[ids[0]]
		v1 := src.Positions[ids[1]]
		v2 := src.Positions[ids[2]]
		normalVec := v1.Sub(v0).Cross(v2.Sub(v0))

		// Degenerate triangle detection
		if normalVec.Length() < 1e-12 {
			out.Skipped++
			continue
		}
		normal := normalVec.Normalize().Array()

		// The normal keeps the source winding; the normal matrix already
		// accounts for a mirrored transform.
		if opts.ReverseWinding {
			v1, v2 = v2, v1
		}
		for _, v := range [3]math.Vec3{v0, v1, v2} {
			out.Vertices = append(out.Vertices, Vertex{Position: v.Array(), Normal: normal})
			out.Bounds.Extend(v)
		}
	}

	return out
}

// Mirrored reports whether world flips handedness. Such transforms reverse
// the screen-space winding of every triangle, so the mesh must be built with
// ReverseWinding for front faces to stay front faces.
func Mirrored(world math.Mat4) bool {
	det := world[0]*(world[5]*world[10]-world[9]*world[6]) -
		world[4]*(world[1]*world[10]-world[9]*world[2]) +
		world[8]*(world[1]*world[6]-world[5]*world[2])
	return det < 0
}

func triangleIDs(src *scene.Mesh, t int) ([3]uint32, bool) {
	var ids [3]uint32
	if len(src.Indices) > 0 {
		copy(ids[:], src.Indices[t*3:t*3+3])
	} else {
		ids = [3]uint32{uint32(t * 3), uint32(t*3 + 1), uint32(t*3 + 2)}
	}
	for _, id := range ids {
		if int(id) >= len(src.Positions) {
			return ids, false
		}
	}
	return ids, true
}

// Floats flattens the vertices into an interleaved position/normal array.
func (m *Mesh) Floats() []float32 {
	out := make([]float32, 0, len(m.Vertices)*6)
	for _, v := range m.Vertices {
		out = append(out, v.Position[0], v.Position[1], v.Position[2], v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return out
}
