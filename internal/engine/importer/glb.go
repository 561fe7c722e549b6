package importer

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// GLB import errors.
var (
	ErrNoScene      = errors.New("glTF document has no scene")
	ErrInvalidIndex = errors.New("glTF index out of range")
)

// yUpToZUp rotates glTF's Y-up frame into the scene's Z-up frame.
var yUpToZUp = math.QuatFromAxisAngle(math.AxisX, gomath.Pi/2)

// GLB imports binary glTF 2.0 containers. The node hierarchy is kept; each
// glTF mesh becomes one scene mesh with its triangle primitives merged.
// Cameras, lights and materials in the file are ignored.
type GLB struct{}

// Import implements Importer.
func (GLB) Import(g *scene.Graph, path string) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return fmt.Errorf("opening glTF: %w", err)
	}

	roots, err := sceneRoots(doc)
	if err != nil {
		return err
	}

	meshes := make(map[int]*scene.Mesh)
	visited := make(map[int]bool)
	for _, idx := range roots {
		node, err := addNode(g, doc, idx, nil, meshes, visited)
		if err != nil {
			return err
		}
		node.Location = yUpToZUp.Rotate(node.Location)
		node.Rotation = yUpToZUp.Mul(node.Rotation)
	}
	return nil
}

// sceneRoots returns the root node indices of the default scene. Documents
// without scenes fall back to every node that is nobody's child.
func sceneRoots(doc *gltf.Document) ([]int, error) {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil {
			idx = int(*doc.Scene)
		}
		if idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("%w: scene %d", ErrInvalidIndex, idx)
		}
		return indices(doc.Scenes[idx].Nodes), nil
	}

	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[int(c)] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		return nil, ErrNoScene
	}
	return roots, nil
}

func indices(in []uint32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func addNode(g *scene.Graph, doc *gltf.Document, idx int, parent *scene.Node, meshes map[int]*scene.Mesh, visited map[int]bool) (*scene.Node, error) {
	if idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("%w: node %d", ErrInvalidIndex, idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("%w: node %d reached twice", ErrInvalidIndex, idx)
	}
	visited[idx] = true
	src := doc.Nodes[idx]

	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}

	var node *scene.Node
	if src.Mesh != nil {
		mesh, err := loadMesh(doc, int(*src.Mesh), meshes)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		node = g.NewMesh(name, mesh)
	} else {
		node = g.NewEmpty(name)
	}

	t := src.TranslationOrDefault()
	r := src.RotationOrDefault()
	s := src.ScaleOrDefault()
	node.Location = math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])}
	node.Rotation = math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	node.Scale = math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])}
	node.Basis = math.FromFloat64(src.MatrixOrDefault())

	if parent != nil {
		if err := g.SetParent(node, parent); err != nil {
			return nil, err
		}
	}

	for _, c := range src.Children {
		if _, err := addNode(g, doc, int(c), node, meshes, visited); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// loadMesh merges the triangle primitives of one glTF mesh. Meshes shared by
// several nodes are decoded once.
func loadMesh(doc *gltf.Document, idx int, cache map[int]*scene.Mesh) (*scene.Mesh, error) {
	if m, ok := cache[idx]; ok {
		return m, nil
	}
	if idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh %d", ErrInvalidIndex, idx)
	}

	out := &scene.Mesh{}
	for pi, prim := range doc.Meshes[idx].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if int(posIdx) >= len(doc.Accessors) {
			return nil, fmt.Errorf("%w: accessor %d", ErrInvalidIndex, posIdx)
		}

		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", pi, err)
		}

		var indices []uint32
		if prim.Indices != nil {
			if int(*prim.Indices) >= len(doc.Accessors) {
				return nil, fmt.Errorf("%w: accessor %d", ErrInvalidIndex, *prim.Indices)
			}
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", pi, err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(len(out.Positions))
		for _, p := range positions {
			out.Positions = append(out.Positions, math.Vec3From(p))
		}
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("%w: vertex %d of %d", ErrInvalidIndex, i, len(positions))
			}
			out.Indices = append(out.Indices, base+i)
		}
	}

	cache[idx] = out
	return out, nil
}
