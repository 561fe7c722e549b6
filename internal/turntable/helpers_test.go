package turntable

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine/scene"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/framing"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/identity"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/normalize"
)

const tetraSTL = `solid tetra
facet normal 0 0 -1
 outer loop
  vertex 0 0 0
  vertex 0 2 0
  vertex 1 0 0
 endloop
endfacet
facet normal 0 -1 0
 outer loop
  vertex 0 0 0
  vertex 1 0 0
  vertex 0 0 3
 endloop
endfacet
facet normal -1 0 0
 outer loop
  vertex 0 0 0
  vertex 0 0 3
  vertex 0 2 0
 endloop
endfacet
facet normal 1 1 1
 outer loop
  vertex 1 0 0
  vertex 0 2 0
  vertex 0 0 3
 endloop
endfacet
endsolid tetra
`

var errGPULost = errors.New("gpu lost")

// fileBackend writes a small text file per frame instead of drawing.
type fileBackend struct {
	settings engine.RenderSettings
	renders  []string
	failAt   int // 1-based Render call that fails; 0 never fails
}

func (b *fileBackend) Configure(s engine.RenderSettings) error {
	b.settings = s
	return nil
}

func (b *fileBackend) Render(g *scene.Graph, path string) error {
	b.renders = append(b.renders, path)
	if b.failAt > 0 && len(b.renders) == b.failAt {
		_ = os.WriteFile(path, []byte("half a frame"), 0o644)
		return errGPULost
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d meshes, %d lights", len(g.Meshes()), len(g.Lights()))), 0o644)
}

func (b *fileBackend) Forget() {}

func writeModel(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func hashOf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "probe")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	sum, err := identity.HashFile(path, identity.MD5)
	if err != nil {
		t.Fatal(err)
	}
	return sum
}

func testOptions() Options {
	return Options{
		Steps: DefaultSteps,
		Render: engine.RenderSettings{
			Engine:      "test",
			Device:      "cpu",
			Samples:     1,
			Width:       64,
			Height:      64,
			Format:      "PNG",
			ColorMode:   "RGBA",
			Transparent: true,
		},
		Framing:      framing.DefaultSettings(),
		Scaling:      normalize.DefaultPolicy(),
		SkipComplete: true,
	}
}

func newTestPipeline(backend *fileBackend, opts Options, observers ...Observer) (*Pipeline, *engine.Engine) {
	eng := engine.New(backend)
	resolver := identity.NewResolver(identity.MD5, eng.Extensions())
	return NewPipeline(eng, resolver, opts, observers...), eng
}

func listPNG(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
