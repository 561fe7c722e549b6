package importer

import (
	"errors"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/formats"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// STL imports stereolithography solids as a single non-indexed mesh node.
// STL carries no units or axes; coordinates are taken as Z-up. A solid without
// facets imports as an empty mesh.
type STL struct{}

// Import implements Importer.
func (STL) Import(g *scene.Graph, path string) error {
	stl, err := formats.ParseSTLFile(path)
	if errors.Is(err, formats.ErrEmptySTL) {
		g.NewMesh(baseName(path), &scene.Mesh{})
		return nil
	}
	if err != nil {
		return err
	}

	positions := stl.Positions()
	mesh := &scene.Mesh{Positions: make([]math.Vec3, len(positions))}
	for i, p := range positions {
		mesh.Positions[i] = math.Vec3From(p)
	}

	g.NewMesh(baseName(path), mesh)
	return nil
}
