// Package renderer is the OpenGL render backend: it draws the evaluated scene
// graph into an offscreen multisampled framebuffer and writes PNG frames.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/capture"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/framebuffer"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/model"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/shader"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/pkg/math"
)

// defaultMaterial is used for meshes without an assigned material.
var defaultMaterial = scene.Material{Name: "default", Color: [4]float32{0.8, 0.8, 0.8, 1}, Roughness: 0.5, Specular: 0.5}

// meshKey identifies one upload: mirrored instances of a mesh need the
// reversed winding.
type meshKey struct {
	mesh     *scene.Mesh
	mirrored bool
}

type gpuMesh struct {
	vao         uint32
	vbo         uint32
	vertexCount int32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	settings engine.RenderSettings
	fb       *framebuffer.Framebuffer
	program  *shader.Program
	meshes   map[meshKey]*gpuMesh
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.NewProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	return &Renderer{
		program: program,
		meshes:  make(map[meshKey]*gpuMesh),
	}, nil
}

// Configure implements engine.Backend. The framebuffer is recreated when the
// resolution or sample count changes.
func (r *Renderer) Configure(s engine.RenderSettings) error {
	if s.Device == "cpu" {
		logger.Warn("cpu device requested; the OpenGL backend renders on whatever device the driver provides")
	}

	if r.fb == nil || s.Width != r.settings.Width || s.Height != r.settings.Height || s.Samples != r.settings.Samples {
		if r.fb != nil {
			r.fb.Destroy()
		}
		fb, err := framebuffer.New(int32(s.Width), int32(s.Height), int32(s.Samples))
		if err != nil {
			return err
		}
		r.fb = fb
		logger.Debug("framebuffer ready",
			zap.Int("width", s.Width),
			zap.Int("height", s.Height),
			zap.Int32("samples", fb.Samples()),
		)
	}

	r.settings = s
	return nil
}

// Render implements engine.Backend.
func (r *Renderer) Render(g *scene.Graph, path string) error {
	if r.fb == nil {
		return fmt.Errorf("renderer is not configured")
	}
	camNode := g.ActiveCamera()
	if camNode == nil || camNode.Camera == nil {
		return fmt.Errorf("scene has no active camera")
	}

	w, h := r.settings.Width, r.settings.Height
	camWorld := camNode.World()

	r.fb.Bind()
	background := float32(1)
	if r.settings.Transparent {
		background = 0
	}
	r.fb.Clear(0, 0, 0, background)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)
	gl.Enable(gl.MULTISAMPLE)

	r.program.Use()
	r.program.SetMat4("uView", camWorld.Inverse())
	r.program.SetMat4("uProjection", camNode.Camera.Projection(w, h))
	r.program.SetVec3("uCameraPos", camWorld.Translation())
	r.program.SetFloat("uExposure", r.settings.Exposure)
	r.setLights(g.Lights())

	drawn := 0
	for _, node := range g.Meshes() {
		world := node.World()
		gm := r.upload(meshKey{mesh: node.Mesh, mirrored: model.Mirrored(world)})
		if gm.vertexCount == 0 {
			continue
		}

		mat := defaultMaterial
		if node.Material != nil {
			mat = *node.Material
		}
		r.program.SetMat4("uModel", world)
		r.program.SetMat4("uNormalMatrix", world.Normal())
		gl.Uniform4f(r.program.Uniform("uAlbedo"), mat.Color[0], mat.Color[1], mat.Color[2], mat.Color[3])
		r.program.SetFloat("uSpecular", mat.Specular)
		r.program.SetFloat("uRoughness", mat.Roughness)

		gl.BindVertexArray(gm.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, gm.vertexCount)
		drawn++
	}
	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		r.fb.Unbind()
		return fmt.Errorf("GL error 0x%x while drawing", code)
	}

	pixels := r.fb.ReadPixels()
	img, err := capture.ImageFromPixels(pixels, w, h, !r.settings.Transparent)
	if err != nil {
		return err
	}
	if err := capture.WritePNG(path, img); err != nil {
		return err
	}

	logger.Debug("frame drawn", zap.String("path", path), zap.Int("meshes", drawn))
	return nil
}

func (r *Renderer) setLights(lights []*scene.Node) {
	count := 0
	for _, node := range lights {
		if count == MaxLights {
			logger.Warn("too many lights, extra lights ignored", zap.Int("max", MaxLights))
			break
		}
		world := node.World()
		power := node.Light.Color.Scale(node.Light.Energy)

		r.program.SetInt(fmt.Sprintf("uLightType[%d]", count), int32(node.Light.Type))
		r.program.SetVec3(fmt.Sprintf("uLightPos[%d]", count), world.Translation())
		r.program.SetVec3(fmt.Sprintf("uLightDir[%d]", count), world.TransformDirection(math.Vec3{Z: -1}))
		r.program.SetVec3(fmt.Sprintf("uLightPower[%d]", count), power)
		count++
	}
	r.program.SetInt("uLightCount", int32(count))
}

// upload returns the GPU copy of a mesh, building it on first use.
func (r *Renderer) upload(key meshKey) *gpuMesh {
	if gm, ok := r.meshes[key]; ok {
		return gm
	}

	built := model.BuildFlat(key.mesh, model.BuildOptions{ReverseWinding: key.mirrored})
	gm := &gpuMesh{vertexCount: int32(len(built.Vertices))}
	r.meshes[key] = gm
	if built.Skipped > 0 {
		logger.Debug("skipped degenerate triangles", zap.Int("count", built.Skipped))
	}
	if gm.vertexCount == 0 {
		return gm
	}

	data := built.Floats()

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)

	// Position attribute (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, model.VertexSize, 0)
	gl.EnableVertexAttribArray(0)

	// Normal attribute (location = 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, model.VertexSize, 12)
	gl.EnableVertexAttribArray(1)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return gm
}

// Forget implements engine.Backend by releasing every uploaded mesh.
func (r *Renderer) Forget() {
	for key, gm := range r.meshes {
		if gm.vao != 0 {
			gl.DeleteVertexArrays(1, &gm.vao)
		}
		if gm.vbo != 0 {
			gl.DeleteBuffers(1, &gm.vbo)
		}
		delete(r.meshes, key)
	}
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Debug("closing renderer")
	r.Forget()
	if r.fb != nil {
		r.fb.Destroy()
	}
	r.program.Delete()
}
