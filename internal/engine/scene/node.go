package scene

import (
	"fmt"
	gomath "math"

	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// Kind is the type of object a node carries.
type Kind int

const (
	KindEmpty  Kind = iota // Transform only
	KindMesh               // Triangle geometry
	KindCamera             // Perspective camera
	KindLight              // Light source
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindMesh:
		return "Mesh"
	case KindCamera:
		return "Camera"
	case KindLight:
		return "Light"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// LightType selects the emitter shape of a light.
type LightType int

const (
	LightArea LightType = iota
	LightPoint
	LightSun
)

// Mesh is indexed triangle geometry in node-local space.
type Mesh struct {
	Positions []math.Vec3
	Indices   []uint32 // Triangle list; empty means non-indexed
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Camera holds lens parameters. Lens and SensorWidth are in millimetres.
type Camera struct {
	Lens        float32
	SensorWidth float32
	ClipStart   float32
	ClipEnd     float32
}

// Light holds emitter parameters. Energy is in watts.
type Light struct {
	Type   LightType
	Energy float32
	Color  math.Vec3
	Size   float32
}

// Material is a flat surface description shared by every mesh it is assigned to.
type Material struct {
	Name      string
	Color     [4]float32
	Roughness float32
	Specular  float32
}

// Node is one object in the scene graph.
type Node struct {
	ID       int
	Name     string
	Kind     Kind
	Parent   *Node
	Children []*Node

	// Local transform: Translate(Location) * Rotation * Scale * Basis.
	Location math.Vec3
	Rotation math.Quat
	Scale    math.Vec3
	Basis    math.Mat4

	Mesh     *Mesh
	Camera   *Camera
	Light    *Light
	Material *Material

	world math.Mat4
}

// LocalMatrix returns the node transform relative to its parent.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Translate(n.Location).
		Mul(n.Rotation.ToMat4()).
		Mul(math.Scale(n.Scale)).
		Mul(n.Basis)
}

// World returns the world matrix evaluated by the last Graph.Update.
func (n *Node) World() math.Mat4 {
	return n.world
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) detach() {
	if n.Parent == nil {
		return
	}
	siblings := n.Parent.Children
	for i, c := range siblings {
		if c == n {
			n.Parent.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	n.Parent = nil
}

// FieldOfView returns the horizontal and vertical view angles in radians for
// an image of the given size. The sensor width spans the larger image side.
func (c *Camera) FieldOfView(width, height int) (fovX, fovY float32) {
	wide := 2 * gomath.Atan(float64(c.SensorWidth)/(2*float64(c.Lens)))
	aspect := float64(width) / float64(height)
	if width >= height {
		return float32(wide), float32(2 * gomath.Atan(gomath.Tan(wide/2)/aspect))
	}
	return float32(2 * gomath.Atan(gomath.Tan(wide/2)*aspect)), float32(wide)
}

// Projection returns the perspective matrix for an image of the given size.
func (c *Camera) Projection(width, height int) math.Mat4 {
	_, fovY := c.FieldOfView(width, height)
	return math.Perspective(fovY, float32(width)/float32(height), c.ClipStart, c.ClipEnd)
}
