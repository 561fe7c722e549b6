// Package normalize measures an imported model and puts it in a canonical
// pose: centered on the origin under a single rotation pivot that carries one
// uniform scale.
package normalize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// Normalization errors.
var (
	ErrNoMeshObjects = errors.New("scene has no mesh objects")
	ErrEmptyGeometry = errors.New("meshes contain no vertices")
)

// PivotName is the name of the node that parents every mesh.
const PivotName = "Rotation_Pivot"

// Scene is the part of the scene engine the normalizer drives.
type Scene interface {
	Meshes() []*scene.Node
	WorldVertices(n *scene.Node) []math.Vec3
	NewEmpty(name string) *scene.Node
	SetParentKeepTransform(child, parent *scene.Node) error
	Translate(n *scene.Node, delta math.Vec3)
	SetScale(n *scene.Node, s math.Vec3)
}

// Extent is the world-space bounding box of a model.
type Extent struct {
	Min          math.Vec3
	Max          math.Vec3
	Center       math.Vec3
	Size         math.Vec3
	MaxDimension float32
}

// Result describes a normalized model.
type Result struct {
	Extent Extent     // Measured before recentering and scaling
	Pivot  *scene.Node
	Scale  float32
	Meshes int
}

// ScaledMaxDimension is the largest extent after the pivot scale.
func (r Result) ScaledMaxDimension() float32 {
	return r.Extent.MaxDimension * r.Scale
}

// Measure computes the extent of every vertex of every mesh in world space.
func Measure(s Scene) (Extent, error) {
	meshes := s.Meshes()
	if len(meshes) == 0 {
		return Extent{}, ErrNoMeshObjects
	}

	b := math.EmptyBounds()
	for _, m := range meshes {
		for _, v := range s.WorldVertices(m) {
			b.Extend(v)
		}
	}
	if b.IsEmpty() {
		return Extent{}, ErrEmptyGeometry
	}
	if !b.IsFinite() {
		return Extent{}, fmt.Errorf("%w: non-finite vertex coordinates", ErrEmptyGeometry)
	}

	size := b.Size()
	return Extent{
		Min:          b.Min,
		Max:          b.Max,
		Center:       b.Center(),
		Size:         size,
		MaxDimension: size.MaxComponent(),
	}, nil
}

// Normalize measures the model, moves every mesh under a new pivot at the
// origin with the geometry centered on it, and sets the pivot's uniform scale
// from the policy.
func Normalize(s Scene, policy Policy) (Result, error) {
	ext, err := Measure(s)
	if err != nil {
		return Result{}, err
	}

	meshes := s.Meshes()
	pivot := s.NewEmpty(PivotName)
	for _, m := range meshes {
		if err := s.SetParentKeepTransform(m, pivot); err != nil {
			return Result{}, fmt.Errorf("parenting %s: %w", m.Name, err)
		}
		s.Translate(m, ext.Center.Neg())
	}

	scale := policy.Factor(ext.MaxDimension)
	s.SetScale(pivot, math.Vec3{X: scale, Y: scale, Z: scale})

	logger.Info("model normalized",
		zap.Int("meshes", len(meshes)),
		zap.Float32("maxDimension", ext.MaxDimension),
		zap.Float32("scale", scale),
	)

	return Result{Extent: ext, Pivot: pivot, Scale: scale, Meshes: len(meshes)}, nil
}
