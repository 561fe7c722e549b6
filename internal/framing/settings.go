package framing

import (
	"fmt"
	gomath "math"
)

// Distance policy names.
const (
	PolicyFOV      = "fov"
	PolicyMultiple = "multiple"
)

// Light rig names.
const (
	RigSymmetric  = "symmetric"
	RigThreePoint = "three-point"
)

// halfDiagonal is the bounding-sphere radius of a cube with unit edge.
const halfDiagonal = 0.8660254 // sqrt(3)/2

// Settings selects how far the camera sits and how the model is lit.
type Settings struct {
	Policy      string
	Lens        float32 // mm
	SensorWidth float32 // mm, spans the larger image side
	Margin      float32 // fov policy: extent multiplier before the tangent fit
	Multiple    float32 // multiple policy: distance per unit of extent
	MinDistance float32

	Rig string
	// LightEnergy is the key energy in watts for a camera ReferenceDistance
	// away; energies follow the inverse-square law so exposure is size-independent.
	LightEnergy       float32
	ReferenceDistance float32
}

// DefaultSettings returns the FOV policy with a 50 mm lens on a 36 mm sensor.
func DefaultSettings() Settings {
	return Settings{
		Policy:            PolicyFOV,
		Lens:              50,
		SensorWidth:       36,
		Margin:            1.5,
		Multiple:          2.8,
		MinDistance:       2,
		Rig:               RigSymmetric,
		LightEnergy:       500,
		ReferenceDistance: 5,
	}
}

// HalfAngle returns half of the narrower view angle for the image size.
func (s Settings) HalfAngle(width, height int) float64 {
	wide := gomath.Atan(float64(s.SensorWidth) / (2 * float64(s.Lens)))
	long, short := max(width, height), min(width, height)
	return gomath.Atan(gomath.Tan(wide) * float64(short) / float64(long))
}

// Validate checks the settings and that no model can be clipped at the
// configured margin: the bounding sphere of the extent cube must subtend less
// than the narrow half-angle at the unclamped distance.
func (s Settings) Validate(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image size must be positive, got %dx%d", width, height)
	}
	if s.Lens <= 0 || s.SensorWidth <= 0 {
		return fmt.Errorf("lens and sensor width must be positive")
	}
	if s.MinDistance <= 0 {
		return fmt.Errorf("minimum distance must be positive, got %v", s.MinDistance)
	}
	if s.LightEnergy < 0 || s.ReferenceDistance <= 0 {
		return fmt.Errorf("light energy must be non-negative and reference distance positive")
	}
	if _, ok := rigs[s.Rig]; !ok {
		return fmt.Errorf("unknown light rig %q", s.Rig)
	}

	half := s.HalfAngle(width, height)
	switch s.Policy {
	case PolicyFOV:
		if need := halfDiagonal / gomath.Cos(half); float64(s.Margin) <= need {
			return fmt.Errorf("margin %v would clip; it must exceed %.3f for a %dx%d image", s.Margin, need, width, height)
		}
	case PolicyMultiple:
		if need := halfDiagonal / gomath.Sin(half); float64(s.Multiple) <= need {
			return fmt.Errorf("multiple %v would clip; it must exceed %.3f for a %dx%d image", s.Multiple, need, width, height)
		}
	default:
		return fmt.Errorf("unknown framing policy %q", s.Policy)
	}
	return nil
}

// Distance returns the camera distance for a model whose largest extent is
// maxDimension. The minimum distance is added to the fitted distance, so the
// result never drops below either term and still grows for tiny models.
func (s Settings) Distance(maxDimension float32, width, height int) float32 {
	var raw float64
	switch s.Policy {
	case PolicyMultiple:
		raw = float64(maxDimension * s.Multiple)
	default:
		raw = float64(maxDimension*s.Margin) / gomath.Tan(s.HalfAngle(width, height))
	}
	return s.MinDistance + float32(raw)
}
