package turntable

import (
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/framing"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/normalize"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// SceneEngine is everything the pipeline needs from the scene engine.
// *engine.Engine implements it.
type SceneEngine interface {
	normalize.Scene
	framing.Scene
	FrameScene

	// Reset discards every object of the previous model.
	Reset()
	// ImportAs loads path with the loader for format, e.g. ".stl", so
	// conflict-parked files import like their canonical siblings.
	ImportAs(path, format string) error
	AssignMaterial(n *scene.Node, m *scene.Material) error
	Configure(settings engine.RenderSettings) error
}

// FrameScene is the part of the engine the render loop drives.
type FrameScene interface {
	SetRotation(n *scene.Node, q math.Quat)
	// Update re-evaluates world transforms; Render sees only evaluated state.
	Update()
	Render(path string) error
}

var _ SceneEngine = (*engine.Engine)(nil)

// FlatWhite is assigned to every mesh: opaque white, fully rough, no specular.
func FlatWhite() *scene.Material {
	return &scene.Material{
		Name:      "White_Material",
		Color:     [4]float32{1, 1, 1, 1},
		Roughness: 1,
		Specular:  0,
	}
}
