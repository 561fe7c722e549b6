// Package scene provides the in-memory scene graph the spinner imports models
// into, transforms, and hands to the renderer.
//
// The graph is Z-up. Cameras and lights point along their local -Z axis with
// local +Y as up.
package scene

import (
	"errors"
	"fmt"

	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// ErrParentCycle is returned when a parent assignment would create a loop.
var ErrParentCycle = errors.New("parent assignment would create a cycle")

// Graph is a mutable scene: a flat node list plus parent links.
type Graph struct {
	nodes        []*Node
	nextID       int
	activeCamera *Node
}

// New creates an empty scene graph.
func New() *Graph {
	return &Graph{}
}

// Reset removes every node.
func (g *Graph) Reset() {
	g.nodes = nil
	g.activeCamera = nil
}

func (g *Graph) add(name string, kind Kind) *Node {
	g.nextID++
	n := &Node{
		ID:       g.nextID,
		Name:     name,
		Kind:     kind,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Basis:    math.Identity(),
		world:    math.Identity(),
	}
	g.nodes = append(g.nodes, n)
	return n
}

// NewEmpty adds a transform-only node at the origin.
func (g *Graph) NewEmpty(name string) *Node {
	return g.add(name, KindEmpty)
}

// NewMesh adds a mesh node.
func (g *Graph) NewMesh(name string, mesh *Mesh) *Node {
	n := g.add(name, KindMesh)
	n.Mesh = mesh
	return n
}

// NewCamera adds a camera node.
func (g *Graph) NewCamera(name string, cam Camera) *Node {
	n := g.add(name, KindCamera)
	n.Camera = &cam
	return n
}

// NewLight adds a light node.
func (g *Graph) NewLight(name string, light Light) *Node {
	n := g.add(name, KindLight)
	n.Light = &light
	return n
}

// SetActiveCamera selects the camera used for rendering.
func (g *Graph) SetActiveCamera(n *Node) error {
	if n == nil || n.Kind != KindCamera {
		return fmt.Errorf("node is not a camera")
	}
	g.activeCamera = n
	return nil
}

// ActiveCamera returns the selected camera, or nil.
func (g *Graph) ActiveCamera() *Node {
	return g.activeCamera
}

// Nodes returns every node in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Meshes returns the mesh nodes in creation order.
func (g *Graph) Meshes() []*Node {
	return g.ofKind(KindMesh)
}

// Lights returns the light nodes in creation order.
func (g *Graph) Lights() []*Node {
	return g.ofKind(KindLight)
}

func (g *Graph) ofKind(kind Kind) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// Remove deletes a node. Its children are re-attached to its parent with
// their world transform preserved.
func (g *Graph) Remove(n *Node) {
	for _, c := range append([]*Node(nil), n.Children...) {
		// Cannot cycle: the new parent is an ancestor of c.
		_ = g.SetParentKeepTransform(c, n.Parent)
	}
	n.detach()
	for i, m := range g.nodes {
		if m == n {
			g.nodes = append(g.nodes[:i], g.nodes[i+1:]...)
			break
		}
	}
	if g.activeCamera == n {
		g.activeCamera = nil
	}
}

// RemoveLights deletes every light and returns how many were removed.
func (g *Graph) RemoveLights() int {
	lights := g.Lights()
	for _, l := range lights {
		g.Remove(l)
	}
	return len(lights)
}

// SetParent links child under parent without touching its local transform.
// A nil parent makes child a root.
func (g *Graph) SetParent(child, parent *Node) error {
	if parent != nil && child.isAncestorOf(parent) {
		return fmt.Errorf("%s under %s: %w", child.Name, parent.Name, ErrParentCycle)
	}
	child.detach()
	if parent != nil {
		child.Parent = parent
		parent.Children = append(parent.Children, child)
	}
	return nil
}

// SetParentKeepTransform links child under parent so that its world transform
// is unchanged. The node's current world matrix, expressed in the parent's
// space, moves into Basis and the TRS channels are reset.
func (g *Graph) SetParentKeepTransform(child, parent *Node) error {
	world := g.WorldMatrix(child)
	if err := g.SetParent(child, parent); err != nil {
		return err
	}
	basis := world
	if parent != nil {
		basis = g.WorldMatrix(parent).Inverse().Mul(world)
	}
	child.Location = math.Vec3{}
	child.Rotation = math.QuatIdentity()
	child.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
	child.Basis = basis
	return nil
}

// SetLocation sets the parent-space position of n.
func (g *Graph) SetLocation(n *Node, v math.Vec3) {
	n.Location = v
}

// Translate moves n by delta in parent space.
func (g *Graph) Translate(n *Node, delta math.Vec3) {
	n.Location = n.Location.Add(delta)
}

// SetRotation sets the orientation of n.
func (g *Graph) SetRotation(n *Node, q math.Quat) {
	n.Rotation = q
}

// SetScale sets the per-axis scale of n.
func (g *Graph) SetScale(n *Node, s math.Vec3) {
	n.Scale = s
}

// AssignMaterial replaces the material of a mesh node.
func (g *Graph) AssignMaterial(n *Node, m *Material) error {
	if n.Kind != KindMesh {
		return fmt.Errorf("%s is a %s node, not a mesh", n.Name, n.Kind)
	}
	n.Material = m
	return nil
}

// WorldMatrix evaluates the current world matrix of n from its ancestors.
func (g *Graph) WorldMatrix(n *Node) math.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// WorldVertices returns the mesh positions of n transformed to world space.
// Non-mesh nodes have no vertices.
func (g *Graph) WorldVertices(n *Node) []math.Vec3 {
	if n.Mesh == nil {
		return nil
	}
	m := g.WorldMatrix(n)
	out := make([]math.Vec3, len(n.Mesh.Positions))
	for i, p := range n.Mesh.Positions {
		out[i] = m.TransformVec3(p)
	}
	return out
}

// LookAt orients n so that its local -Z axis points at target, with local +Y
// toward world +Z. The orientation is written to the node's rotation channel,
// so n is expected to be a root.
func (g *Graph) LookAt(n *Node, target math.Vec3) {
	from := g.WorldMatrix(n).Translation()
	n.Rotation = math.LookRotation(from, target, math.AxisZ)
}

// Update evaluates and caches the world matrix of every node. Renderers read
// the cached matrices, so transform edits are invisible to them until Update runs.
func (g *Graph) Update() {
	for _, n := range g.nodes {
		n.world = g.WorldMatrix(n)
	}
}
