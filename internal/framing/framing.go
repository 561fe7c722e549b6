// Package framing places the camera and light rig for a normalized model:
// the camera sits on -Y looking at the origin, far enough that the whole model
// stays in frame at every turntable angle.
package framing

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// Scene is the part of the scene engine the framer drives.
type Scene interface {
	NewCamera(name string, cam scene.Camera) *scene.Node
	SetActiveCamera(n *scene.Node) error
	NewLight(name string, light scene.Light) *scene.Node
	RemoveLights() int
	SetLocation(n *scene.Node, v math.Vec3)
	LookAt(n *scene.Node, target math.Vec3)
}

type rigLight struct {
	name      string
	direction math.Vec3 // Position per unit of camera distance
	energy    float32   // Fraction of Settings.LightEnergy
}

var rigs = map[string][]rigLight{
	// Left, right and top area lights, as a ReferenceDistance-5 layout of
	// (-5,-5,3), (5,-5,3) and (0,-5,6).
	RigSymmetric: {
		{"Light_Left", math.Vec3{X: -1, Y: -1, Z: 0.6}, 1},
		{"Light_Right", math.Vec3{X: 1, Y: -1, Z: 0.6}, 1},
		{"Light_Top", math.Vec3{X: 0, Y: -1, Z: 1.2}, 1},
	},
	RigThreePoint: {
		{"Light_Key", math.Vec3{X: -0.8, Y: -1, Z: 0.8}, 1},
		{"Light_Fill", math.Vec3{X: 1, Y: -0.9, Z: 0.3}, 0.5},
		{"Light_Rim", math.Vec3{X: 0.4, Y: 1.2, Z: 1}, 0.8},
	},
}

// Result describes the placed camera and lights.
type Result struct {
	Distance      float32
	Camera        *scene.Node
	Lights        []*scene.Node
	RemovedLights int
}

// Frame creates the camera and light rig for a model centered at the origin
// whose largest (scaled) extent is maxDimension. Every existing light is
// removed first.
func Frame(s Scene, maxDimension float32, width, height int, settings Settings) (Result, error) {
	layout, ok := rigs[settings.Rig]
	if !ok {
		return Result{}, fmt.Errorf("unknown light rig %q", settings.Rig)
	}

	var origin math.Vec3
	d := settings.Distance(maxDimension, width, height)
	res := Result{Distance: d, RemovedLights: s.RemoveLights()}

	res.Camera = s.NewCamera("Camera", scene.Camera{
		Lens:        settings.Lens,
		SensorWidth: settings.SensorWidth,
		ClipStart:   d * 0.01,
		ClipEnd:     d * 3,
	})
	s.SetLocation(res.Camera, math.Vec3{Y: -d})
	s.LookAt(res.Camera, origin)
	if err := s.SetActiveCamera(res.Camera); err != nil {
		return Result{}, err
	}

	falloff := (d / settings.ReferenceDistance) * (d / settings.ReferenceDistance)
	for _, l := range layout {
		n := s.NewLight(l.name, scene.Light{
			Type:   scene.LightArea,
			Energy: settings.LightEnergy * l.energy * falloff,
			Color:  math.Vec3{X: 1, Y: 1, Z: 1},
			Size:   d * 0.2,
		})
		s.SetLocation(n, l.direction.Scale(d))
		s.LookAt(n, origin)
		res.Lights = append(res.Lights, n)
	}

	logger.Info("camera framed",
		zap.Float32("distance", d),
		zap.String("rig", settings.Rig),
		zap.Int("removedLights", res.RemovedLights),
	)
	return res, nil
}
